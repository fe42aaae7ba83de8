package guidestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Container is the flat-file document: the four collections plus any other
// top-level keys found on disk, which are carried through rewrites untouched.
type Container struct {
	Users      []User
	Tutorials  []Tutorial
	Categories []Category
	Feedback   []Feedback

	extra map[string]json.RawMessage
}

// NewContainer returns a container with four empty collections.
func NewContainer() *Container {
	return &Container{
		Users:      []User{},
		Tutorials:  []Tutorial{},
		Categories: []Category{},
		Feedback:   []Feedback{},
	}
}

// LegacyPublicCategories decodes the legacy list if the container has one.
func (c *Container) LegacyPublicCategories() ([]LegacyPublicCategory, error) {
	raw, ok := c.extra[LegacyPublicCategoriesKey]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []LegacyPublicCategory{}, nil
	}
	var legacy []LegacyPublicCategory
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"key":   LegacyPublicCategoriesKey,
			"error": err.Error(),
		})
	}
	return legacy, nil
}

// SetLegacyPublicCategories stores the legacy list as an extra key.
// Only export uses this, to carry the list across backends.
func (c *Container) SetLegacyPublicCategories(legacy []LegacyPublicCategory) error {
	if len(legacy) == 0 {
		return nil
	}
	raw, err := json.Marshal(legacy)
	if err != nil {
		return err
	}
	if c.extra == nil {
		c.extra = make(map[string]json.RawMessage)
	}
	c.extra[LegacyPublicCategoriesKey] = raw
	return nil
}

// MarshalJSON writes the four collections first, then extra keys in sorted
// order. Nil collections are written as [].
func (c Container) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(key string, value interface{}) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(data)
		return nil
	}

	fields := []struct {
		key   string
		value interface{}
	}{
		{CollectionUsers, nonNil(c.Users)},
		{CollectionTutorials, nonNil(c.Tutorials)},
		{CollectionCategories, nonNil(c.Categories)},
		{CollectionFeedback, nonNil(c.Feedback)},
	}
	for _, f := range fields {
		if err := writeField(f.key, f.value); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(c.extra))
	for k := range c.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeField(k, c.extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Container) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("container is not a JSON object")
	}

	decoded := NewContainer()
	targets := map[string]interface{}{
		CollectionUsers:      &decoded.Users,
		CollectionTutorials:  &decoded.Tutorials,
		CollectionCategories: &decoded.Categories,
		CollectionFeedback:   &decoded.Feedback,
	}
	for key, raw := range fields {
		target, ok := targets[key]
		if !ok {
			if decoded.extra == nil {
				decoded.extra = make(map[string]json.RawMessage)
			}
			decoded.extra[key] = raw
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}

	// A null collection reads as empty.
	if decoded.Users == nil {
		decoded.Users = []User{}
	}
	if decoded.Tutorials == nil {
		decoded.Tutorials = []Tutorial{}
	}
	if decoded.Categories == nil {
		decoded.Categories = []Category{}
	}
	if decoded.Feedback == nil {
		decoded.Feedback = []Feedback{}
	}

	*c = *decoded
	return nil
}

// EncodeContainer renders c the way it is persisted: UTF-8 JSON, two-space indent.
func EncodeContainer(c *Container) ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// DecodeContainer parses a persisted container. Any parse failure wraps ErrInvalidData.
func DecodeContainer(data []byte) (*Container, error) {
	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"error": err.Error(),
		})
	}
	return &c, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
