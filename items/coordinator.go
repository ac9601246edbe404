// Package items executes the write side of a report collection: create,
// edit, status transition and delete, including the image-resolution step
// that precedes any remote write.
package items

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"pickmeup-backend/models"
	"pickmeup-backend/store"
	"pickmeup-backend/utils"
)

// Uploader resolves one pending-local image into a remote URL.
type Uploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// Coordinator performs mutations against one report collection. Successful
// writes are not merged into any local state here; the live mirror picks
// them up on its next snapshot.
type Coordinator struct {
	store    store.DocumentStore
	col      models.Collection
	uploader Uploader

	mu   sync.Mutex
	busy map[string]bool
}

func NewCoordinator(st store.DocumentStore, col models.Collection, up Uploader) *Coordinator {
	return &Coordinator{
		store:    st,
		col:      col,
		uploader: up,
		busy:     make(map[string]bool),
	}
}

func (c *Coordinator) Collection() models.Collection { return c.col }

// acquire marks the item as having a mutation in flight. The matching
// release must run on every exit path.
func (c *Coordinator) acquire(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[id] {
		return ErrBusy
	}
	c.busy[id] = true
	return nil
}

func (c *Coordinator) release(id string) {
	c.mu.Lock()
	delete(c.busy, id)
	c.mu.Unlock()
}

// Busy reports whether a mutation for the item is currently in flight.
func (c *Coordinator) Busy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[id]
}

// resolveImages uploads every pending-local image concurrently and returns
// the kept remote URLs followed by the freshly uploaded ones. Any single
// failure aborts the lot: the caller must not write a document containing
// an unresolved reference.
func (c *Coordinator) resolveImages(ctx context.Context, remote []string, files []*multipart.FileHeader) ([]string, error) {
	resolved := append([]string{}, remote...)
	if len(files) == 0 {
		return resolved, nil
	}

	uploaded := make([]string, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file *multipart.FileHeader) {
			defer wg.Done()
			url, err := c.uploader.Upload(ctx, file)
			uploaded[i], errs[i] = url, err
		}(i, file)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			utils.LogError(err, "image upload failed, aborting mutation")
			return nil, fmt.Errorf("%w: %v", ErrUpload, err)
		}
	}
	return append(resolved, uploaded...), nil
}

// Create validates the draft, resolves its images and writes a new report
// with the collection's initial status and the acting user as owner.
// Returns the id assigned by the store.
func (c *Coordinator) Create(ctx context.Context, userID string, draft models.ItemDraft, images []*multipart.FileHeader) (string, error) {
	if errs := draft.Validate(len(images)); errs != nil {
		return "", errs
	}

	urls, err := c.resolveImages(ctx, draft.ImageURLs, images)
	if err != nil {
		return "", err
	}

	now := time.Now()
	item := models.ItemReport{
		Title:       draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		Address:     draft.Address,
		Category:    draft.Category,
		Phone:       draft.Phone,
		Email:       draft.Email,
		ImageURLs:   urls,
		Status:      c.col.InitialStatus(),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := c.store.Create(ctx, c.col, item)
	if err != nil {
		return "", err
	}
	utils.LogSuccessWithUser(userID, "report created in "+string(c.col))
	return id, nil
}

// owned loads the item and rejects the mutation when the acting user is not
// the recorded owner. Hiding the button client-side is not enough; the
// check runs here on every write path.
func (c *Coordinator) owned(ctx context.Context, userID, id string) (*models.ItemReport, error) {
	item, err := c.store.Get(ctx, c.col, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrForbidden
	}
	return item, nil
}

// Update applies a partial edit. Only the changed fields plus a refreshed
// updatedAt are written; createdAt and the owner are never touched.
func (c *Coordinator) Update(ctx context.Context, userID, id string, upd models.ItemUpdate, images []*multipart.FileHeader) error {
	if errs := upd.Validate(len(images)); errs != nil {
		return errs
	}
	if err := c.acquire(id); err != nil {
		return err
	}
	defer c.release(id)

	item, err := c.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	set := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	set("title", upd.Title)
	set("description", upd.Description)
	set("location", upd.Location)
	set("address", upd.Address)
	set("category", upd.Category)
	set("phone", upd.Phone)
	set("email", upd.Email)

	if upd.ImageURLs != nil || len(images) > 0 {
		kept := upd.ImageURLs
		if kept == nil {
			kept = item.ImageURLs
		}
		if len(kept)+len(images) > models.MaxImages {
			return models.ValidationErrors{"images": "You can only upload up to 5 images"}
		}
		urls, err := c.resolveImages(ctx, kept, images)
		if err != nil {
			return err
		}
		fields["image_urls"] = urls
	}

	fields["updated_at"] = time.Now()
	if err := c.store.UpdatePartial(ctx, c.col, id, fields); err != nil {
		return err
	}
	utils.LogSuccessWithUser(userID, "report updated in "+string(c.col))
	return nil
}

// transition moves the item to the terminal status of its collection,
// attaching the detail record. Already-terminal items are rejected before
// any remote call is issued.
func (c *Coordinator) transition(ctx context.Context, userID, id string, extra map[string]any) error {
	if err := c.acquire(id); err != nil {
		return err
	}
	defer c.release(id)

	item, err := c.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if item.Status == c.col.TerminalStatus() {
		return ErrTerminal
	}

	fields := map[string]any{
		"status":     c.col.TerminalStatus(),
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := c.store.UpdatePartial(ctx, c.col, id, fields); err != nil {
		return err
	}
	utils.LogSuccessWithUser(userID, "report marked "+string(c.col.TerminalStatus()))
	return nil
}

// MarkFound closes a lost report: the owner got the item back.
func (c *Coordinator) MarkFound(ctx context.Context, userID, id string, details models.RecoveryDetails) error {
	if c.col != models.CollectionLost {
		return fmt.Errorf("mark-found applies to the %s collection only", models.CollectionLost)
	}
	return c.transition(ctx, userID, id, map[string]any{"recovery_details": details})
}

// MarkReturned closes a found report: the item went back to its owner.
func (c *Coordinator) MarkReturned(ctx context.Context, userID, id string, details models.ReturnDetails) error {
	if c.col != models.CollectionFound {
		return fmt.Errorf("mark-returned applies to the %s collection only", models.CollectionFound)
	}
	return c.transition(ctx, userID, id, map[string]any{"return_details": details})
}

// Delete removes the report permanently. The two-step confirmation lives in
// the handler; by the time this runs the user has confirmed.
func (c *Coordinator) Delete(ctx context.Context, userID, id string) error {
	if err := c.acquire(id); err != nil {
		return err
	}
	defer c.release(id)

	if _, err := c.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, c.col, id); err != nil {
		return err
	}
	utils.LogSuccessWithUser(userID, "report deleted from "+string(c.col))
	return nil
}
