package guidestore

import "testing"

func TestTutorialFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   TutorialFilter
		want TutorialFilter
	}{
		{"empty", TutorialFilter{}, TutorialFilter{}},
		{"all sentinel", TutorialFilter{Category: "all"}, TutorialFilter{}},
		{"all sentinel any case", TutorialFilter{Category: "All"}, TutorialFilter{}},
		{"real category kept", TutorialFilter{Category: "Phones"}, TutorialFilter{Category: "Phones"}},
		{"search lowered", TutorialFilter{Search: "Screen"}, TutorialFilter{Search: "screen"}},
		{"model untouched", TutorialFilter{Model: "iPhone 12"}, TutorialFilter{Model: "iPhone 12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTutorialFilter_Match(t *testing.T) {
	tut := &Tutorial{
		Title:    "Screen Replacement",
		Summary:  "Swap a cracked DISPLAY",
		Category: "Phones",
		Model:    "iPhone 12",
	}

	tests := []struct {
		name   string
		filter TutorialFilter
		want   bool
	}{
		{"no filter", TutorialFilter{}, true},
		{"category match", TutorialFilter{Category: "Phones"}, true},
		{"category is case-sensitive", TutorialFilter{Category: "phones"}, false},
		{"all sentinel", TutorialFilter{Category: "all"}, true},
		{"model match", TutorialFilter{Model: "iPhone 12"}, true},
		{"model mismatch", TutorialFilter{Model: "iPhone 13"}, false},
		{"search title", TutorialFilter{Search: "SCREEN"}, true},
		{"search summary", TutorialFilter{Search: "display"}, true},
		{"search miss", TutorialFilter{Search: "battery"}, false},
		{"search does not span fields", TutorialFilter{Search: "replacement swap"}, false},
		{"conjunctive", TutorialFilter{Category: "Phones", Model: "iPhone 12", Search: "crack"}, true},
		{"conjunctive miss", TutorialFilter{Category: "Laptops", Search: "screen"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Normalize().Match(tut); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTutorialFilter_IsEmpty(t *testing.T) {
	if !(TutorialFilter{Category: "ALL"}).IsEmpty() {
		t.Error("sentinel-only filter should be empty")
	}
	if (TutorialFilter{Search: "x"}).IsEmpty() {
		t.Error("search filter should not be empty")
	}
}

func TestFilterTutorials_KeepsInsertionOrder(t *testing.T) {
	ts := []Tutorial{
		{ID: "c", Title: "Screen C", Category: "Phones"},
		{ID: "a", Title: "Battery", Category: "Phones"},
		{ID: "b", Title: "screen b", Category: "Phones"},
	}

	got := filterTutorials(ts, TutorialFilter{Search: "screen"})
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("unexpected result order: %+v", got)
	}
}
