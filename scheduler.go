package fractal

import (
	"sync/atomic"
	"time"

	"github.com/gogpu/fractal/internal/parallel"
)

// State is the lifecycle state of a Scheduler's current job.
type State uint8

const (
	// StateIdle means no job was ever started.
	StateIdle State = iota
	// StateRunning means the current job has rows left to compute.
	StateRunning
	// StateCompleted means the current job delivered its full frame.
	StateCompleted
	// StateCancelled means the current job was cancelled before completion.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// PartialFunc receives each finished batch. pixels holds rowCount rows of
// RGBA data starting at rowStart and aliases the job's buffer; it must not
// be modified, and stays valid after the callback returns.
type PartialFunc func(rowStart, rowCount int, pixels []byte)

// CompleteFunc receives the finished frame. Ownership of the pixmap passes
// to the callee.
type CompleteFunc func(pm *Pixmap)

// renderJob is the state of one render. Only the loop goroutine touches
// it, apart from workers writing into their own rows of buffer.
type renderJob struct {
	token      uint64
	view       View
	nextRow    int
	delivered  int
	buffer     *Pixmap
	onPartial  PartialFunc
	onComplete CompleteFunc
	started    time.Time
}

// Scheduler renders one View at a time in row batches and delivers them
// through callbacks.
//
// Every job carries a token. Starting a job or cancelling one changes the
// scheduler's current token, and any batch whose token no longer matches is
// discarded when it reaches the loop. Nothing is ever interrupted mid-batch.
//
// Thread safety: Start, Render, Cancel, State and Close must be called from
// the goroutine that drains Loop() (the host goroutine), and all callbacks
// run there. Token and CancelHandle.Cancel are safe from any goroutine.
type Scheduler struct {
	opts  options
	loop  *Loop
	pool  *parallel.Pool
	token atomic.Uint64

	job    *renderJob
	state  State
	closed bool
}

// NewScheduler creates a scheduler. With WithWorkers(n > 1) it also starts
// n worker goroutines, released by Close.
func NewScheduler(opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scheduler{opts: o, loop: o.loop}
	if s.loop == nil {
		s.loop = NewLoop()
	}
	if o.workers > 1 {
		s.pool = parallel.NewPool(o.workers)
	}
	return s
}

// Loop returns the loop the scheduler posts its batches to. The host must
// drain it (Run, RunPending or RunFor) for rendering to make progress.
func (s *Scheduler) Loop() *Loop {
	return s.loop
}

// Token returns the current job token. It changes on every Start and Cancel.
func (s *Scheduler) Token() uint64 {
	return s.token.Load()
}

// BatchRows returns the configured rows per batch.
func (s *Scheduler) BatchRows() int {
	return s.opts.batchRows
}

// Workers returns the number of worker goroutines, 0 in cooperative mode.
func (s *Scheduler) Workers() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.Workers()
}

// State returns the lifecycle state of the current job.
func (s *Scheduler) State() State {
	if s.state == StateRunning && s.job != nil && s.job.token != s.token.Load() {
		return StateCancelled
	}
	return s.state
}

// Render starts rendering v, superseding any job in flight.
//
// An invalid view is rejected with a *ViewError before anything is
// scheduled; no callback fires for it and the previous job keeps running.
// Either callback may be nil.
func (s *Scheduler) Render(v View, onPartial PartialFunc, onComplete CompleteFunc) (*CancelHandle, error) {
	return s.Start(v, onPartial, onComplete)
}

// Start is Render under the state-machine name.
func (s *Scheduler) Start(v View, onPartial PartialFunc, onComplete CompleteFunc) (*CancelHandle, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	tok := s.token.Add(1)
	job := &renderJob{
		token:      tok,
		view:       v,
		buffer:     NewPixmap(v.PixelWidth, v.PixelHeight),
		onPartial:  onPartial,
		onComplete: onComplete,
		started:    time.Now(),
	}
	s.job = job
	s.state = StateRunning

	Logger().Debug("fractal: render started",
		"token", tok,
		"width", v.PixelWidth,
		"height", v.PixelHeight,
		"iterations", v.MaxIterations,
		"workers", s.Workers(),
	)

	if s.pool != nil {
		s.dispatch(job)
	} else {
		s.loop.Post(func() { s.processBatch(job) })
	}
	return &CancelHandle{s: s, token: tok}, nil
}

// Cancel invalidates the current job without waiting for it. Batches
// already queued become no-ops.
func (s *Scheduler) Cancel() {
	s.token.Add(1)
	if s.state == StateRunning {
		s.cancelled(s.job)
	}
}

// Close cancels the current job and stops the worker pool. Start returns
// ErrClosed afterwards. Close is safe to call more than once.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	s.Cancel()
	s.closed = true
	if s.pool != nil {
		s.pool.Close()
	}
}

// current reports whether job is still the one the scheduler wants.
func (s *Scheduler) current(job *renderJob) bool {
	return s.job == job && job.token == s.token.Load()
}

// processBatch is the cooperative step: compute one batch on the loop,
// deliver it, and yield by reposting the next step.
func (s *Scheduler) processBatch(job *renderJob) {
	if !s.current(job) {
		s.stale(job, job.nextRow)
		return
	}

	start := job.nextRow
	n := min(s.opts.batchRows, job.view.PixelHeight-start)
	renderRows(job.view, job.buffer, start, n)
	job.nextRow += n

	s.deliver(job, start, n)
	if job.delivered < job.view.PixelHeight && s.current(job) {
		s.loop.Post(func() { s.processBatch(job) })
	}
}

// dispatch hands one band per worker to the pool. Workers compute their
// band batch by batch and post each finished batch back to the loop.
func (s *Scheduler) dispatch(job *renderJob) {
	bands := parallel.SplitRows(job.view.PixelHeight, s.pool.Workers())
	tasks := make([]func(), len(bands))
	for i, band := range bands {
		tasks[i] = func() {
			for _, b := range band.Batches(s.opts.batchRows) {
				if s.token.Load() != job.token {
					return
				}
				renderRows(job.view, job.buffer, b.Start, b.Rows)
				s.loop.Post(func() {
					if !s.current(job) {
						s.stale(job, b.Start)
						return
					}
					s.deliver(job, b.Start, b.Rows)
				})
			}
		}
	}
	job.nextRow = job.view.PixelHeight

	if !s.pool.Go(tasks...) {
		Logger().Warn("fractal: worker pool closed, render dropped", "token", job.token)
		s.cancelled(job)
	}
}

// deliver passes finished rows to the caller and completes the job once
// every row has been delivered. The caller has checked job is current.
func (s *Scheduler) deliver(job *renderJob, start, n int) {
	if job.onPartial != nil {
		job.onPartial(start, n, job.buffer.Rows(start, n))
	}
	job.delivered += n
	if job.delivered < job.view.PixelHeight {
		return
	}
	// The partial callback may have superseded this job.
	if !s.current(job) {
		return
	}

	s.state = StateCompleted
	Logger().Debug("fractal: render completed",
		"token", job.token,
		"duration", time.Since(job.started),
	)
	if job.onComplete != nil {
		job.onComplete(job.buffer)
	}
}

func (s *Scheduler) cancelled(job *renderJob) {
	s.state = StateCancelled
	if job != nil {
		Logger().Debug("fractal: render cancelled",
			"token", job.token,
			"rows_delivered", job.delivered,
			"duration", time.Since(job.started),
		)
	}
}

func (s *Scheduler) stale(job *renderJob, row int) {
	Logger().Debug("fractal: stale batch dropped", "token", job.token, "row", row)
}

// renderRows computes rows [start, start+n) of v into pm.
// Distinct row ranges may be rendered concurrently.
func renderRows(v View, pm *Pixmap, start, n int) {
	for py := start; py < start+n; py++ {
		for px := 0; px < v.PixelWidth; px++ {
			cx, cy := PixelToComplex(float64(px), float64(py), v)
			res := Iterate(cx, cy, v.Exponent, v.Bailout, v.MaxIterations)
			pm.Set(px, py, Colorize(res, v.MaxIterations, v.Exponent, v.Hue, v.Saturation, v.Lightness))
		}
	}
}

// CancelHandle cancels the job it was returned for.
type CancelHandle struct {
	s     *Scheduler
	token uint64
}

// Token returns the token of the handle's job.
func (h *CancelHandle) Token() uint64 {
	return h.token
}

// Cancel invalidates the handle's job. It does nothing if that job was
// already superseded, so a stale handle never cancels a newer render.
// Cancel is safe to call from any goroutine.
func (h *CancelHandle) Cancel() {
	if h == nil || h.s == nil {
		return
	}
	h.s.token.CompareAndSwap(h.token, h.token+1)
}

// Valid reports whether the handle's job is still the current one.
func (h *CancelHandle) Valid() bool {
	return h != nil && h.s != nil && h.s.token.Load() == h.token
}
