package items

import "errors"

var (
	// ErrUpload: an image failed to upload; the whole mutation was aborted
	// and no document was written.
	ErrUpload = errors.New("image upload failed")
	// ErrForbidden: the acting user is not the recorded owner of the item.
	ErrForbidden = errors.New("not the owner of this item")
	// ErrTerminal: the item already carries the terminal status for its
	// collection; transitions are one-directional and never reopened.
	ErrTerminal = errors.New("item status is already terminal")
	// ErrBusy: another mutation for the same item is still in flight.
	ErrBusy = errors.New("item mutation already in flight")
)
