package fractal

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// testView returns a small, cheap view of the classic set.
func testView(w, h int) View {
	v := DefaultView(w, h)
	v.MaxIterations = 50
	return v
}

// drain runs the scheduler's loop until no task is left.
// Only valid in cooperative mode, where nothing posts from outside.
func drain(s *Scheduler) {
	for s.Loop().RunPending() > 0 {
	}
}

// pumpUntil runs the loop until done reports true or the deadline passes.
func pumpUntil(t *testing.T, s *Scheduler, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for !done() {
		if s.Loop().RunPending() > 0 {
			continue
		}
		select {
		case <-s.Loop().Wake():
		case <-ctx.Done():
			t.Fatal("timed out waiting for the scheduler")
		}
	}
}

type batch struct {
	start, rows int
	pixels      []byte
}

// recorder collects callbacks, copying the row data at delivery time.
type recorder struct {
	batches  []batch
	complete *Pixmap
	calls    int
}

func (r *recorder) partial(start, rows int, pixels []byte) {
	r.batches = append(r.batches, batch{start: start, rows: rows, pixels: bytes.Clone(pixels)})
}

func (r *recorder) done(pm *Pixmap) {
	r.complete = pm
	r.calls++
}

// =============================================================================
// State machine
// =============================================================================

func TestScheduler_InitialState(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	if s.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", s.State())
	}
	if s.Token() != 0 {
		t.Errorf("Token() = %d, want 0", s.Token())
	}
	if s.BatchRows() != DefaultBatchRows {
		t.Errorf("BatchRows() = %d, want %d", s.BatchRows(), DefaultBatchRows)
	}
	if s.Workers() != 0 {
		t.Errorf("Workers() = %d, want 0", s.Workers())
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var rec recorder
	h, err := s.Start(testView(20, 20), rec.partial, rec.done)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if s.State() != StateRunning {
		t.Errorf("State() after Start = %v, want Running", s.State())
	}
	if h.Token() != s.Token() {
		t.Errorf("handle token = %d, scheduler token = %d", h.Token(), s.Token())
	}
	if len(rec.batches) != 0 {
		t.Fatal("callbacks must not fire before the loop runs")
	}

	drain(s)

	if s.State() != StateCompleted {
		t.Errorf("State() after drain = %v, want Completed", s.State())
	}
	if rec.calls != 1 {
		t.Errorf("onComplete calls = %d, want 1", rec.calls)
	}
}

func TestScheduler_YieldsBetweenBatches(t *testing.T) {
	s := NewScheduler(WithBatchRows(4))
	defer s.Close()

	var rec recorder
	if _, err := s.Start(testView(10, 20), rec.partial, rec.done); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	// One RunPending computes exactly one batch; the next is only queued.
	for i := 1; i <= 5; i++ {
		if n := s.Loop().RunPending(); n != 1 {
			t.Fatalf("round %d: RunPending() = %d, want 1", i, n)
		}
		if len(rec.batches) != i {
			t.Fatalf("round %d: %d batches delivered, want %d", i, len(rec.batches), i)
		}
	}
	if s.Loop().Len() != 0 {
		t.Errorf("Loop().Len() = %d after last batch, want 0", s.Loop().Len())
	}
	if rec.complete == nil {
		t.Fatal("onComplete not called after last batch")
	}
	for i, b := range rec.batches {
		if b.start != i*4 || b.rows != 4 {
			t.Errorf("batch %d = (%d, %d), want (%d, 4)", i, b.start, b.rows, i*4)
		}
	}
}

func TestScheduler_ShortLastBatch(t *testing.T) {
	s := NewScheduler(WithBatchRows(8))
	defer s.Close()

	var rec recorder
	if _, err := s.Start(testView(5, 13), rec.partial, rec.done); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	drain(s)

	if len(rec.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(rec.batches))
	}
	last := rec.batches[1]
	if last.start != 8 || last.rows != 5 {
		t.Errorf("last batch = (%d, %d), want (8, 5)", last.start, last.rows)
	}
	if len(last.pixels) != 5*5*4 {
		t.Errorf("last batch has %d bytes, want %d", len(last.pixels), 5*5*4)
	}
}

// =============================================================================
// Validation
// =============================================================================

func TestScheduler_RejectsInvalidView(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	bad := testView(10, 10)
	bad.Bailout = 1

	var rec recorder
	h, err := s.Start(bad, rec.partial, rec.done)
	if !errors.Is(err, ErrInvalidView) {
		t.Fatalf("Start(invalid) error = %v, want ErrInvalidView", err)
	}
	if h != nil {
		t.Error("Start(invalid) returned a handle")
	}
	drain(s)
	if len(rec.batches) != 0 || rec.calls != 0 {
		t.Error("invalid view produced callbacks")
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", s.State())
	}
}

func TestScheduler_InvalidViewKeepsCurrentJob(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var rec recorder
	if _, err := s.Start(testView(10, 10), rec.partial, rec.done); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	bad := testView(0, 10)
	if _, err := s.Start(bad, nil, nil); err == nil {
		t.Fatal("Start(PixelWidth=0) should fail")
	}
	drain(s)
	if rec.calls != 1 {
		t.Error("rejected view must not supersede the running job")
	}
}

func TestScheduler_Closed(t *testing.T) {
	s := NewScheduler()
	s.Close()
	s.Close() // idempotent

	if _, err := s.Start(testView(4, 4), nil, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close = %v, want ErrClosed", err)
	}
}

// =============================================================================
// Partial/full consistency
// =============================================================================

func checkConsistency(t *testing.T, rec *recorder, height int) {
	t.Helper()
	if rec.complete == nil {
		t.Fatal("job did not complete")
	}
	sort.Slice(rec.batches, func(i, j int) bool { return rec.batches[i].start < rec.batches[j].start })

	var joined []byte
	next := 0
	for _, b := range rec.batches {
		if b.start != next {
			t.Fatalf("batch starts at row %d, want %d (gap or overlap)", b.start, next)
		}
		joined = append(joined, b.pixels...)
		next += b.rows
	}
	if next != height {
		t.Fatalf("batches cover %d rows, want %d", next, height)
	}
	if !bytes.Equal(joined, rec.complete.Data()) {
		t.Error("concatenated partial frames differ from the completed buffer")
	}
}

func TestScheduler_PartialFullConsistency(t *testing.T) {
	s := NewScheduler(WithBatchRows(3))
	defer s.Close()

	var rec recorder
	if _, err := s.Start(testView(17, 29), rec.partial, rec.done); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	drain(s)
	checkConsistency(t, &rec, 29)
}

func TestScheduler_ParallelConsistency(t *testing.T) {
	s := NewScheduler(WithWorkers(4), WithBatchRows(2))
	defer s.Close()

	if s.Workers() != 4 {
		t.Fatalf("Workers() = %d, want 4", s.Workers())
	}

	var rec recorder
	if _, err := s.Start(testView(23, 41), rec.partial, rec.done); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	pumpUntil(t, s, func() bool { return rec.complete != nil })
	checkConsistency(t, &rec, 41)

	if s.State() != StateCompleted {
		t.Errorf("State() = %v, want Completed", s.State())
	}
}

func TestScheduler_ParallelMatchesCooperative(t *testing.T) {
	v := testView(32, 24)

	coop, err := Render(context.Background(), v)
	if err != nil {
		t.Fatalf("Render(cooperative) = %v", err)
	}
	par, err := Render(context.Background(), v, WithWorkers(3), WithBatchRows(5))
	if err != nil {
		t.Fatalf("Render(parallel) = %v", err)
	}
	if !bytes.Equal(coop.Data(), par.Data()) {
		t.Error("parallel and cooperative renders differ")
	}
}

// =============================================================================
// Cancellation
// =============================================================================

func TestScheduler_SupersededJobIsSilent(t *testing.T) {
	for _, workers := range []int{0, 4} {
		s := NewScheduler(WithWorkers(workers), WithBatchRows(2))

		var a, b recorder
		if _, err := s.Start(testView(30, 30), a.partial, a.done); err != nil {
			t.Fatalf("Start(A) = %v", err)
		}
		if _, err := s.Start(testView(30, 30), b.partial, b.done); err != nil {
			t.Fatalf("Start(B) = %v", err)
		}
		pumpUntil(t, s, func() bool { return b.complete != nil })
		s.Close()

		if len(a.batches) != 0 || a.calls != 0 {
			t.Errorf("workers=%d: superseded job A fired %d partials, %d completes", workers, len(a.batches), a.calls)
		}
		checkConsistency(t, &b, 30)
	}
}

func TestScheduler_SupersedeMidRender(t *testing.T) {
	s := NewScheduler(WithBatchRows(2))
	defer s.Close()

	var a, b recorder
	if _, err := s.Start(testView(10, 20), a.partial, a.done); err != nil {
		t.Fatalf("Start(A) = %v", err)
	}
	s.Loop().RunPending()
	s.Loop().RunPending()
	seen := len(a.batches)
	if seen != 2 {
		t.Fatalf("A delivered %d batches before supersede, want 2", seen)
	}

	if _, err := s.Start(testView(10, 20), b.partial, b.done); err != nil {
		t.Fatalf("Start(B) = %v", err)
	}
	drain(s)

	if len(a.batches) != seen || a.calls != 0 {
		t.Errorf("A fired after B started: %d partials (had %d), %d completes", len(a.batches), seen, a.calls)
	}
	if b.calls != 1 {
		t.Errorf("B completes = %d, want 1", b.calls)
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler(WithBatchRows(2))
	defer s.Close()

	var rec recorder
	tok := s.Token()
	if _, err := s.Start(testView(10, 10), rec.partial, rec.done); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	s.Loop().RunPending()
	s.Cancel()

	if s.State() != StateCancelled {
		t.Errorf("State() = %v, want Cancelled", s.State())
	}
	if s.Token() <= tok+1 {
		t.Errorf("Token() = %d, want > %d after Cancel", s.Token(), tok+1)
	}

	n := len(rec.batches)
	drain(s)
	if len(rec.batches) != n || rec.calls != 0 {
		t.Error("cancelled job kept delivering")
	}
}

func TestCancelHandle(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var a, b recorder
	ha, _ := s.Start(testView(8, 8), a.partial, a.done)
	hb, _ := s.Start(testView(8, 8), b.partial, b.done)

	if ha.Valid() {
		t.Error("superseded handle reports Valid")
	}
	if !hb.Valid() {
		t.Error("current handle reports not Valid")
	}

	// A stale handle must not cancel the newer job.
	ha.Cancel()
	if !hb.Valid() {
		t.Fatal("stale handle cancelled the current job")
	}

	hb.Cancel()
	if hb.Valid() {
		t.Error("handle still valid after Cancel")
	}
	if s.State() != StateCancelled {
		t.Errorf("State() = %v, want Cancelled", s.State())
	}
	drain(s)
	if b.calls != 0 || len(b.batches) != 0 {
		t.Error("job fired callbacks after its handle was cancelled")
	}

	var nilHandle *CancelHandle
	nilHandle.Cancel() // must not panic
}

func TestScheduler_RestartFromCallback(t *testing.T) {
	s := NewScheduler(WithBatchRows(5))
	defer s.Close()

	var b recorder
	restarted := false
	first := func(start, rows int, pixels []byte) {
		if restarted {
			t.Error("first job delivered after restarting")
			return
		}
		restarted = true
		if _, err := s.Start(testView(10, 10), b.partial, b.done); err != nil {
			t.Errorf("Start() from callback = %v", err)
		}
	}
	if _, err := s.Start(testView(10, 10), first, func(*Pixmap) { t.Error("first job completed") }); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	drain(s)
	if b.calls != 1 {
		t.Errorf("restarted job completes = %d, want 1", b.calls)
	}
}

func TestScheduler_SharedLoop(t *testing.T) {
	loop := NewLoop()
	left := NewScheduler(WithLoop(loop))
	right := NewScheduler(WithLoop(loop))
	defer left.Close()
	defer right.Close()

	var l, r recorder
	lv := testView(12, 12)
	rv := testView(12, 12)
	rv.Exponent = 3

	if _, err := left.Start(lv, l.partial, l.done); err != nil {
		t.Fatal(err)
	}
	if _, err := right.Start(rv, r.partial, r.done); err != nil {
		t.Fatal(err)
	}
	// Independent schedulers keep independent tokens.
	if left.Token() != 1 || right.Token() != 1 {
		t.Errorf("tokens = (%d, %d), want (1, 1)", left.Token(), right.Token())
	}
	for loop.RunPending() > 0 {
	}
	if l.calls != 1 || r.calls != 1 {
		t.Errorf("completes = (%d, %d), want (1, 1)", l.calls, r.calls)
	}
	if bytes.Equal(l.complete.Data(), r.complete.Data()) {
		t.Error("exponent 2 and 3 frames should differ")
	}
}

// =============================================================================
// Scenario
// =============================================================================

func TestScheduler_ClassicScenario(t *testing.T) {
	v := View{
		CenterX: -0.5, CenterY: 0, ViewWidth: 3.5,
		PixelWidth: 100, PixelHeight: 100,
		MaxIterations: 50, Exponent: 2, Bailout: 2,
		Hue: 0, Saturation: 100, Lightness: 50,
	}

	pm, err := Render(context.Background(), v)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}

	if got := pm.RGBAt(50, 50); got != Black {
		t.Errorf("center pixel = %v, want black", got)
	}
	if got := pm.RGBAt(0, 0); got == Black {
		t.Error("corner pixel is black, want escaped colour")
	}

	cx, cy := PixelToComplex(0, 0, v)
	res := Iterate(cx, cy, v.Exponent, v.Bailout, v.MaxIterations)
	if !res.Escaped || res.Iterations >= 10 {
		t.Errorf("corner Iterate() = %+v, want escaped in < 10 iterations", res)
	}
	cx, cy = PixelToComplex(50, 50, v)
	if res := Iterate(cx, cy, v.Exponent, v.Bailout, v.MaxIterations); res.Escaped {
		t.Errorf("center Iterate() = %+v, want not escaped", res)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "Idle"},
		{StateRunning, "Running"},
		{StateCompleted, "Completed"},
		{StateCancelled, "Cancelled"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func BenchmarkScheduler_Frame(b *testing.B) {
	v := DefaultView(128, 128)
	for b.Loop() {
		if _, err := Render(context.Background(), v); err != nil {
			b.Fatal(err)
		}
	}
}
