package domain

// Segment is one sentence of a chapter with its estimated timing.
// Timestamps are proportional estimates, not measured alignments.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript holds the sentence-level timestamps for one synthesized chapter.
// Segments partition [0, Duration] contiguously, up to rounding tolerance.
type Transcript struct {
	Text     string    `json:"text"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Normalize rounds all stored values to their persisted precision:
// 2 fractional digits for the duration, 3 for segment boundaries.
func (t *Transcript) Normalize() {
	t.Duration = Round2(t.Duration)
	for i := range t.Segments {
		t.Segments[i].Start = Round3(t.Segments[i].Start)
		t.Segments[i].End = Round3(t.Segments[i].End)
	}
}
