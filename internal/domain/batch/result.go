// Package batch reports per-item outcomes of bulk knowledge loads.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusSkipped ItemStatus = "skipped" // stored copy already up to date
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewSkipped marks an item that needed no write.
func NewSkipped(id string) Result { return Result{id: id, status: StatusSkipped} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results by status.
type Summary struct {
	OK      int
	Skipped int
	Failed  int
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusOK:
			s.OK++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}
