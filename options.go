package fractal

// DefaultBatchRows is the number of rows computed per batch. Small enough
// that one batch of a deep zoom stays within a few milliseconds on
// commodity hardware at moderate iteration counts.
const DefaultBatchRows = 8

// Option configures a Scheduler during creation.
// Use functional options to customize scheduling behaviour.
//
// Example:
//
//	// Default cooperative scheduling, 8 rows per batch
//	s := fractal.NewScheduler()
//
//	// Four parallel workers, 4 rows per batch
//	s := fractal.NewScheduler(fractal.WithWorkers(4), fractal.WithBatchRows(4))
type Option func(*options)

// options holds optional configuration for Scheduler creation.
type options struct {
	batchRows int
	workers   int
	loop      *Loop
}

// defaultOptions returns the default scheduler options.
func defaultOptions() options {
	return options{
		batchRows: DefaultBatchRows,
		workers:   0, // cooperative: batches run on the loop itself
		loop:      nil,
	}
}

// WithBatchRows sets how many rows one batch computes. Values < 1 are
// ignored. Smaller batches lower the worst-case latency between yields;
// larger batches lower per-batch overhead.
func WithBatchRows(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.batchRows = n
		}
	}
}

// WithWorkers enables the multi-worker mode with n worker goroutines, each
// owning a disjoint band of rows. n <= 1 selects the cooperative mode, in
// which every batch runs on the loop goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLoop makes the Scheduler post its tasks to an existing loop, so
// several schedulers (e.g. a split-view comparison) can share one host
// goroutine. By default each Scheduler creates its own Loop.
func WithLoop(l *Loop) Option {
	return func(o *options) {
		o.loop = l
	}
}
