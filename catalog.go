package guidestore

import (
	"slices"
	"time"
)

// Catalog edits. Each helper returns a new category list and leaves its
// input untouched, so callers can read with GetCategories, edit, and write
// back with SetCategories (or use Store.EditCategories). The edited
// category gets UpdatedAt = now.

// FindCategory returns the index of the category with the given id.
func FindCategory(categories []Category, id string) (int, bool) {
	i := slices.IndexFunc(categories, func(c Category) bool { return c.ID == id })
	return i, i >= 0
}

// Brand returns the brand with the given id.
func (c Category) Brand(id string) (Subcategory, bool) {
	i := slices.IndexFunc(c.Subcategories, func(s Subcategory) bool { return s.ID == id })
	if i < 0 {
		return Subcategory{}, false
	}
	return c.Subcategories[i], true
}

// Model returns the model with the given name.
func (s Subcategory) Model(name string) (Model, bool) {
	i := slices.IndexFunc(s.Models, func(m Model) bool { return m.Name == name })
	if i < 0 {
		return Model{}, false
	}
	return s.Models[i], true
}

// AddBrand appends brand to a category. Brand ids are unique per category.
func AddBrand(categories []Category, categoryID string, brand Subcategory, now time.Time) ([]Category, error) {
	return editCategory(categories, categoryID, now, func(c *Category) error {
		if _, ok := c.Brand(brand.ID); ok {
			return catalogConflict("brand", brand.ID)
		}
		if brand.Models == nil {
			brand.Models = []Model{}
		}
		c.Subcategories = append(slices.Clip(c.Subcategories), brand)
		return nil
	})
}

// AddModel appends model to a brand. Model names are unique per brand.
func AddModel(categories []Category, categoryID, brandID string, model Model, now time.Time) ([]Category, error) {
	return editBrand(categories, categoryID, brandID, now, func(b *Subcategory) error {
		if _, ok := b.Model(model.Name); ok {
			return catalogConflict("model", model.Name)
		}
		if model.Parts == nil {
			model.Parts = []string{}
		}
		b.Models = append(slices.Clip(b.Models), model)
		return nil
	})
}

// RemoveModel drops a model and its parts from a brand.
func RemoveModel(categories []Category, categoryID, brandID, modelName string, now time.Time) ([]Category, error) {
	return editBrand(categories, categoryID, brandID, now, func(b *Subcategory) error {
		i := slices.IndexFunc(b.Models, func(m Model) bool { return m.Name == modelName })
		if i < 0 {
			return catalogMissing("model", modelName)
		}
		b.Models = slices.Delete(slices.Clone(b.Models), i, i+1)
		return nil
	})
}

// AddPart appends a part name to a model.
func AddPart(categories []Category, categoryID, brandID, modelName, part string, now time.Time) ([]Category, error) {
	return editModel(categories, categoryID, brandID, modelName, now, func(m *Model) error {
		if slices.Contains(m.Parts, part) {
			return catalogConflict("part", part)
		}
		m.Parts = append(slices.Clip(m.Parts), part)
		return nil
	})
}

// RemovePart drops a part name from a model.
func RemovePart(categories []Category, categoryID, brandID, modelName, part string, now time.Time) ([]Category, error) {
	return editModel(categories, categoryID, brandID, modelName, now, func(m *Model) error {
		i := slices.Index(m.Parts, part)
		if i < 0 {
			return catalogMissing("part", part)
		}
		m.Parts = slices.Delete(slices.Clone(m.Parts), i, i+1)
		return nil
	})
}

func editCategory(categories []Category, categoryID string, now time.Time, fn func(*Category) error) ([]Category, error) {
	i, ok := FindCategory(categories, categoryID)
	if !ok {
		return nil, catalogMissing("category", categoryID)
	}
	out := slices.Clone(categories)
	c := out[i]
	if err := fn(&c); err != nil {
		return nil, err
	}
	c.UpdatedAt = now
	out[i] = c
	return out, nil
}

func editBrand(categories []Category, categoryID, brandID string, now time.Time, fn func(*Subcategory) error) ([]Category, error) {
	return editCategory(categories, categoryID, now, func(c *Category) error {
		i := slices.IndexFunc(c.Subcategories, func(s Subcategory) bool { return s.ID == brandID })
		if i < 0 {
			return catalogMissing("brand", brandID)
		}
		subs := slices.Clone(c.Subcategories)
		if err := fn(&subs[i]); err != nil {
			return err
		}
		c.Subcategories = subs
		return nil
	})
}

func editModel(categories []Category, categoryID, brandID, modelName string, now time.Time, fn func(*Model) error) ([]Category, error) {
	return editBrand(categories, categoryID, brandID, now, func(b *Subcategory) error {
		i := slices.IndexFunc(b.Models, func(m Model) bool { return m.Name == modelName })
		if i < 0 {
			return catalogMissing("model", modelName)
		}
		models := slices.Clone(b.Models)
		if err := fn(&models[i]); err != nil {
			return err
		}
		b.Models = models
		return nil
	})
}

func catalogMissing(level, key string) error {
	return WithContext(ErrNotFound, map[string]interface{}{level: key})
}

func catalogConflict(level, key string) error {
	return WithContext(ErrAlreadyExists, map[string]interface{}{level: key})
}
