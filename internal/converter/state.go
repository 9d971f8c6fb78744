package converter

// State tracks a chapter through the synthesis pipeline.
type State string

const (
	StatePending      State = "pending"
	StateSynthesizing State = "synthesizing"
	StateStitching    State = "stitching"
	StateDone         State = "done"
	StateSkipped      State = "skipped"
	StateFailed       State = "failed"
)

// ChapterResult is the outcome of processing one chapter in a run.
type ChapterResult struct {
	Number         int
	Title          string
	State          State
	AudioFile      string
	TranscriptFile string
	Duration       float64
	Err            error
}
