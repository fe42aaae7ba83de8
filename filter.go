package guidestore

import "strings"

// CategoryAll is the category value the site sends for "no category filter".
// It is matched case-insensitively and never compared against stored data.
const CategoryAll = "all"

// TutorialFilter selects tutorials. Empty fields do not filter; set fields
// are combined with AND.
type TutorialFilter struct {
	Category string // exact, case-sensitive
	Model    string // exact, case-sensitive
	Search   string // case-insensitive substring of title or summary
}

// Normalize returns the filter both backends evaluate: the CategoryAll
// sentinel is dropped and Search is lowercased.
func (f TutorialFilter) Normalize() TutorialFilter {
	if strings.EqualFold(f.Category, CategoryAll) {
		f.Category = ""
	}
	f.Search = strings.ToLower(f.Search)
	return f
}

// IsEmpty reports whether the filter matches every tutorial.
func (f TutorialFilter) IsEmpty() bool {
	n := f.Normalize()
	return n.Category == "" && n.Model == "" && n.Search == ""
}

// Match is the in-memory predicate used by the flat-file store.
// f must already be normalized.
func (f TutorialFilter) Match(t *Tutorial) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Model != "" && t.Model != f.Model {
		return false
	}
	if f.Search != "" {
		title, summary := searchFold(t)
		if !strings.Contains(title, f.Search) && !strings.Contains(summary, f.Search) {
			return false
		}
	}
	return true
}

// searchFold returns the case-folded text fields free-text search runs over.
// The Redis store persists the same values so both backends fold identically.
func searchFold(t *Tutorial) (title, summary string) {
	return strings.ToLower(t.Title), strings.ToLower(t.Summary)
}

// filterTutorials applies f to ts, keeping insertion order.
func filterTutorials(ts []Tutorial, f TutorialFilter) []Tutorial {
	f = f.Normalize()
	out := make([]Tutorial, 0, len(ts))
	for i := range ts {
		if f.Match(&ts[i]) {
			out = append(out, ts[i])
		}
	}
	return out
}
