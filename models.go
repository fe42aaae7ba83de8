package guidestore

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role is the permission level of an admin-side account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCreator
}

// User is an admin-side account. Username is unique across the collection.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// Tutorial is a repair guide for one device part.
type Tutorial struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Brand           string    `json:"brand"`
	Model           string    `json:"model"`
	Part            string    `json:"part"`
	RelatedParts    []string  `json:"relatedParts"`
	Difficulty      string    `json:"difficulty"`
	DurationMinutes int       `json:"durationMinutes"`
	Summary         string    `json:"summary"`
	Tools           []ItemRef `json:"tools"`
	VideoURL        string    `json:"videoUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	Steps           []Step    `json:"steps"`
}

// Step is one numbered instruction of a tutorial.
type Step struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Warnings    []string  `json:"warnings"`
	Tips        []string  `json:"tips"`
	Tools       []ItemRef `json:"tools"`
	Parts       []ItemRef `json:"parts"`
}

// ItemRef names a tool or part, optionally with a shop link.
// On disk it is a bare string when URL is empty and {name, url} otherwise.
type ItemRef struct {
	Name string
	URL  string
}

type itemRefObject struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

func (r ItemRef) MarshalJSON() ([]byte, error) {
	if r.URL == "" {
		return json.Marshal(r.Name)
	}
	return json.Marshal(itemRefObject(r))
}

func (r *ItemRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = ItemRef{Name: name}
		return nil
	}

	var obj itemRefObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = ItemRef(obj)
	return nil
}

// Category is the top level of the device catalog.
// A nil IsPublic counts as public.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Icon          string        `json:"icon,omitempty"`
	Path          string        `json:"path,omitempty"`
	DisplayOrder  int           `json:"displayOrder"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	IsPublic      *bool         `json:"isPublic,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
	CreatedAt     time.Time     `json:"createdAt,omitzero"`
	UpdatedAt     time.Time     `json:"updatedAt,omitzero"`
}

// Public reports whether the category is shown on the public site.
func (c Category) Public() bool {
	return c.IsPublic == nil || *c.IsPublic
}

// Subcategory is a brand inside a category.
type Subcategory struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Models   []Model `json:"models"`
}

// Model is a device model. Older records store a model as a bare name;
// those decode to a Model with only Name set, and every Model is written
// back in object form. Parts hang off the model and nowhere else.
type Model struct {
	Name     string
	ImageURL string
	Parts    []string
}

type modelObject struct {
	Name     string   `json:"name"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Parts    []string `json:"parts"`
}

func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelObject(m))
}

func (m *Model) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*m = Model{Name: name}
		return nil
	}

	var obj modelObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = Model(obj)
	return nil
}

// LegacyPublicCategory is an entry of the pre-hierarchy "public categories"
// list. It is only ever read.
type LegacyPublicCategory struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	Path         string `json:"path,omitempty"`
	DisplayOrder int    `json:"displayOrder,omitempty"`
	Order        *int   `json:"order,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// Position returns the sort position, preferring the old "order" field.
func (l LegacyPublicCategory) Position() int {
	if l.Order != nil {
		return *l.Order
	}
	return l.DisplayOrder
}

// Feedback is a visitor message. Append-only.
type Feedback struct {
	Name      string    `json:"name"`
	Request   string    `json:"request"`
	Comments  string    `json:"comments"`
	Timestamp time.Time `json:"timestamp"`
}

// Bool returns a pointer to b, for Category.IsPublic literals.
func Bool(b bool) *bool {
	return &b
}
