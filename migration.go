package guidestore

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// MigrationReport describes one run of the legacy public-category migration.
type MigrationReport struct {
	Legacy  int      `json:"legacy"`  // entries in the legacy list
	Added   []string `json:"added"`   // ids of synthesized categories
	Skipped []string `json:"skipped"` // legacy names already covered by a unified category
}

// Changed reports whether the run wrote anything.
func (r MigrationReport) Changed() bool {
	return len(r.Added) > 0
}

// mergeLegacyCategories folds legacy entries into categories. A legacy entry
// whose trimmed name (case-insensitive) or non-empty path matches an existing
// category is skipped and the existing category is left as is. Unmatched
// entries become new public categories with no brands.
//
// The result never reorders or modifies the input categories, so feeding the
// output back in with the same legacy list adds nothing.
func mergeLegacyCategories(categories []Category, legacy []LegacyPublicCategory, now time.Time) ([]Category, MigrationReport) {
	report := MigrationReport{
		Legacy:  len(legacy),
		Added:   []string{},
		Skipped: []string{},
	}

	out := make([]Category, len(categories), len(categories)+len(legacy))
	copy(out, categories)

	names := make(map[string]bool, len(out))
	paths := make(map[string]bool, len(out))
	ids := make(map[string]bool, len(out))
	remember := func(c Category) {
		names[nameKey(c.Name)] = true
		if c.Path != "" {
			paths[c.Path] = true
		}
		ids[c.ID] = true
	}
	for _, c := range out {
		remember(c)
	}

	for _, l := range legacy {
		if names[nameKey(l.Name)] || (l.Path != "" && paths[l.Path]) {
			report.Skipped = append(report.Skipped, l.Name)
			continue
		}

		c := Category{
			ID:            legacyCategoryID(l, ids),
			Name:          strings.TrimSpace(l.Name),
			Icon:          l.Icon,
			Path:          l.Path,
			DisplayOrder:  l.Position(),
			ImageURL:      l.ImageURL,
			IsPublic:      Bool(true),
			Subcategories: []Subcategory{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		out = append(out, c)
		remember(c)
		report.Added = append(report.Added, c.ID)
	}

	return out, report
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// legacyCategoryID keeps the legacy id when it is free, otherwise derives a
// unique slug from the name.
func legacyCategoryID(l LegacyPublicCategory, taken map[string]bool) string {
	if l.ID != "" && !taken[l.ID] {
		return l.ID
	}
	return uniqueSlug(slugify(l.Name), taken)
}

func uniqueSlug(base string, taken map[string]bool) string {
	if base == "" {
		base = "category"
	}
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// slugify lowercases name and joins its letter/digit runs with hyphens.
func slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}
