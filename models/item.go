package models

import (
	"regexp"
	"strings"
	"time"
)

// Collection identifies which of the two report collections an item lives in.
type Collection string

const (
	CollectionLost  Collection = "lost"
	CollectionFound Collection = "found"
)

type Status string

const (
	StatusLost     Status = "lost"
	StatusFound    Status = "found"
	StatusReturned Status = "returned"
)

// InitialStatus is the status every fresh report starts with in this collection.
func (c Collection) InitialStatus() Status {
	if c == CollectionFound {
		return StatusFound
	}
	return StatusLost
}

// TerminalStatus is the final value of the one-directional status progression:
// lost items end at "found", found items end at "returned". Once reached, the
// status never moves again.
func (c Collection) TerminalStatus() Status {
	if c == CollectionFound {
		return StatusReturned
	}
	return StatusFound
}

func (c Collection) ValidStatus(s Status) bool {
	return s == c.InitialStatus() || s == c.TerminalStatus()
}

// MaxImages caps the number of photos attached to a single report.
const MaxImages = 5

// Locations lists the selectable districts for a report.
var Locations = []string{
	"Colombo", "Gampaha", "Kalutara", "Kandy", "Matale", "Nuwara Eliya",
	"Galle", "Matara", "Hambantota", "Jaffna", "Kilinochchi", "Mannar",
	"Vavuniya", "Mullaitivu", "Batticaloa", "Ampara", "Trincomalee",
	"Kurunegala", "Puttalam", "Anuradhapura", "Polonnaruwa", "Badulla",
	"Moneragala", "Ratnapura", "Kegalle",
}

// Categories lists the selectable item categories.
var Categories = []string{"Electronics", "Documents", "Clothes", "Pets", "Bags", "Other"}

type RecoveryDetails struct {
	FinderName       string `json:"finderName,omitempty" bson:"finder_name,omitempty"`
	ContactInfo      string `json:"contactInfo,omitempty" bson:"contact_info,omitempty"`
	RecoveryLocation string `json:"recoveryLocation,omitempty" bson:"recovery_location,omitempty"`
	Notes            string `json:"notes,omitempty" bson:"notes,omitempty"`
}

type ReturnDetails struct {
	OwnerName      string `json:"ownerName,omitempty" bson:"owner_name,omitempty"`
	ContactInfo    string `json:"contactInfo,omitempty" bson:"contact_info,omitempty"`
	ReturnLocation string `json:"returnLocation,omitempty" bson:"return_location,omitempty"`
	Notes          string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// ItemReport is a lost or found posting. The ID is assigned by the store on
// creation and is the sole join key between list and detail views. UserID is
// the owner recorded at creation; only the owner may mutate or delete.
type ItemReport struct {
	ID              string           `json:"id" bson:"-"`
	Title           string           `json:"title" bson:"title"`
	Description     string           `json:"description" bson:"description"`
	Location        string           `json:"location" bson:"location"`
	Address         string           `json:"address,omitempty" bson:"address,omitempty"`
	Category        string           `json:"category" bson:"category"`
	Phone           string           `json:"phone" bson:"phone"`
	Email           string           `json:"email" bson:"email"`
	ImageURLs       []string         `json:"imageUrls,omitempty" bson:"image_urls,omitempty"`
	Status          Status           `json:"status" bson:"status"`
	UserID          string           `json:"userId" bson:"user_id"`
	RecoveryDetails *RecoveryDetails `json:"recoveryDetails,omitempty" bson:"recovery_details,omitempty"`
	ReturnDetails   *ReturnDetails   `json:"returnDetails,omitempty" bson:"return_details,omitempty"`
	CreatedAt       time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updated_at"`
}

var (
	phoneRegex = regexp.MustCompile(`^\d{10}$`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ItemDraft is a create submission before any remote write. ImageURLs holds
// already-resolved remote URLs carried over unchanged; freshly picked photos
// arrive separately as multipart files and are uploaded before persisting.
type ItemDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Address     string `json:"address"`
	Category    string `json:"category"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	ImageURLs   []string
}

// ValidationErrors maps field name to the problem with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Validate checks every required field and returns per-field errors, or nil
// when the draft is submittable. pendingImages counts photos still to upload.
func (d ItemDraft) Validate(pendingImages int) ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = "Description is required"
	}
	if d.Location == "" {
		errs["location"] = "Please select a location"
	} else if !contains(Locations, d.Location) {
		errs["location"] = "Unknown location"
	}
	if d.Category == "" {
		errs["category"] = "Please select a category"
	} else if !contains(Categories, d.Category) {
		errs["category"] = "Unknown category"
	}
	if strings.TrimSpace(d.Phone) == "" {
		errs["phone"] = "Phone is required"
	} else if !phoneRegex.MatchString(d.Phone) {
		errs["phone"] = "Phone must be 10 digits"
	}
	if strings.TrimSpace(d.Email) == "" {
		errs["email"] = "Email is required"
	} else if !ValidEmail(d.Email) {
		errs["email"] = "Invalid email format"
	}
	if len(d.ImageURLs)+pendingImages > MaxImages {
		errs["images"] = "You can only upload up to 5 images"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ItemUpdate is a partial edit: nil pointers leave the field untouched.
// ImageURLs, when non-nil, replaces the kept remote URLs (new uploads are
// appended by the coordinator). CreatedAt, UserID and Status are never
// editable through an update; status moves only via the transition calls.
type ItemUpdate struct {
	Title       *string
	Description *string
	Location    *string
	Address     *string
	Category    *string
	Phone       *string
	Email       *string
	ImageURLs   []string
}

// Validate checks only the fields present in the partial update.
func (u ItemUpdate) Validate(pendingImages int) ValidationErrors {
	errs := ValidationErrors{}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs["title"] = "Title is required"
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		errs["description"] = "Description is required"
	}
	if u.Location != nil && !contains(Locations, *u.Location) {
		errs["location"] = "Unknown location"
	}
	if u.Category != nil && !contains(Categories, *u.Category) {
		errs["category"] = "Unknown category"
	}
	if u.Phone != nil && !phoneRegex.MatchString(*u.Phone) {
		errs["phone"] = "Phone must be 10 digits"
	}
	if u.Email != nil && !ValidEmail(*u.Email) {
		errs["email"] = "Invalid email format"
	}
	if u.ImageURLs != nil && len(u.ImageURLs)+pendingImages > MaxImages {
		errs["images"] = "You can only upload up to 5 images"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
