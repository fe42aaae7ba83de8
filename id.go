package guidestore

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 (time-ordered) identifier for users and
// tutorials created without a caller-supplied id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to UUIDv4 if NewV7 fails (extremely rare)
		id = uuid.New()
	}
	return id.String()
}

// IsValidID checks if a string is a valid UUID. Ids carried over from the
// legacy store (slugs, numeric strings) are not UUIDs and are still accepted
// everywhere; this only tells generated ids apart.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
