package batch

// Event is the closed set of notifications a batch emits. Consumers receive
// them on the handle's channel in emission order; ordering across items is
// not guaranteed beyond that.
type Event interface {
	batchEvent()
}

// Progress reports overall batch percent plus a human-readable message.
type Progress struct {
	Percent int
	Message string
}

// FileError reports one item's failure without aborting the batch.
type FileError struct {
	Path    string
	Message string
}

// Complete carries the final tally. Never emitted for a cancelled batch.
type Complete struct {
	Tally Tally
}

// Cancelled is the terminal event of a cancelled batch.
type Cancelled struct{}

func (Progress) batchEvent()  {}
func (FileError) batchEvent() {}
func (Complete) batchEvent()  {}
func (Cancelled) batchEvent() {}

// Tally aggregates per-item outcomes. Success and Failure together cover
// every file attempted; skipped animations are tracked separately and count
// toward neither.
type Tally struct {
	Success         int
	Failure         int
	Animated        int
	SkippedAnimated int
}

func (t *Tally) add(other Tally) {
	t.Success += other.Success
	t.Failure += other.Failure
	t.Animated += other.Animated
	t.SkippedAnimated += other.SkippedAnimated
}
