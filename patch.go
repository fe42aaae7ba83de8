package guidestore

// TutorialPatch is a partial tutorial update. Non-nil fields replace the
// stored value; nil fields keep it. The merge is shallow: a patched Steps
// slice replaces every step.
type TutorialPatch struct {
	Title           *string    `json:"title,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Brand           *string    `json:"brand,omitempty"`
	Model           *string    `json:"model,omitempty"`
	Part            *string    `json:"part,omitempty"`
	RelatedParts    *[]string  `json:"relatedParts,omitempty"`
	Difficulty      *string    `json:"difficulty,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Summary         *string    `json:"summary,omitempty"`
	Tools           *[]ItemRef `json:"tools,omitempty"`
	VideoURL        *string    `json:"videoUrl,omitempty"`
	ThumbnailURL    *string    `json:"thumbnailUrl,omitempty"`
	Steps           *[]Step    `json:"steps,omitempty"`
}

// Apply merges p into t. The id is never touched.
func (p TutorialPatch) Apply(t *Tutorial) {
	setIf(&t.Title, p.Title)
	setIf(&t.Category, p.Category)
	setIf(&t.Brand, p.Brand)
	setIf(&t.Model, p.Model)
	setIf(&t.Part, p.Part)
	setIf(&t.RelatedParts, p.RelatedParts)
	setIf(&t.Difficulty, p.Difficulty)
	setIf(&t.DurationMinutes, p.DurationMinutes)
	setIf(&t.Summary, p.Summary)
	setIf(&t.Tools, p.Tools)
	setIf(&t.VideoURL, p.VideoURL)
	setIf(&t.ThumbnailURL, p.ThumbnailURL)
	setIf(&t.Steps, p.Steps)
}

// IsEmpty reports whether the patch changes nothing.
func (p TutorialPatch) IsEmpty() bool {
	return p == TutorialPatch{}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
