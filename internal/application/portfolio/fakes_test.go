package portfolio

import (
	"context"
	"errors"
	"sync"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

type fakeWallet struct {
	session domain.Session
	err     error
	calls   int
	force   []bool
}

func (w *fakeWallet) Connect(_ context.Context, force bool) (domain.Session, error) {
	w.calls++
	w.force = append(w.force, force)
	if w.err != nil {
		return domain.Session{}, w.err
	}
	return w.session, nil
}

type fakePools struct {
	pools []domain.Pool
	err   error
}

func (p *fakePools) FetchPools(context.Context) ([]domain.Pool, error) {
	return p.pools, p.err
}

// fakePositions answers FetchPosition from a queue; the last entry repeats.
type fakePositions struct {
	mu      sync.Mutex
	answers []positionAnswer
	calls   int
}

type positionAnswer struct {
	position domain.Position
	err      error
}

func (p *fakePositions) FetchPosition(context.Context, string, string) (domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.answers) == 0 {
		return nil, nil
	}
	a := p.answers[0]
	if len(p.answers) > 1 {
		p.answers = p.answers[1:]
	}
	return a.position, a.err
}

// fakeAnalytics optionally blocks on gate until the test releases it.
type fakeAnalytics struct {
	mu       sync.Mutex
	samples  []domain.EmulationSample
	variants []domain.Variant
	err      error
	gate     chan struct{}
	entered  chan struct{}
	requests []domain.AnalyticsRequest
}

func (a *fakeAnalytics) wait(req domain.AnalyticsRequest) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()
	if a.entered != nil {
		a.entered <- struct{}{}
	}
	if a.gate != nil {
		<-a.gate
	}
}

func (a *fakeAnalytics) Emulate(_ context.Context, req domain.AnalyticsRequest) ([]domain.EmulationSample, error) {
	a.wait(req)
	return a.samples, a.err
}

func (a *fakeAnalytics) Optimize(_ context.Context, req domain.AnalyticsRequest) ([]domain.Variant, error) {
	a.wait(req)
	return a.variants, a.err
}

type fakeSubmitter struct {
	mu        sync.Mutex
	calls     []domain.ContractCall
	submitErr error
	awaitErr  error
	awaited   []int
}

func (s *fakeSubmitter) Submit(_ context.Context, call domain.ContractCall) (domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &fakeOperation{s: s, hash: "oo" + call.Entrypoint}, nil
}

func (s *fakeSubmitter) last() domain.ContractCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type fakeOperation struct {
	s    *fakeSubmitter
	hash string
}

func (o *fakeOperation) Hash() string { return o.hash }

func (o *fakeOperation) AwaitConfirmations(_ context.Context, n int) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	o.s.awaited = append(o.s.awaited, n)
	return o.s.awaitErr
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice domain.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) byLevel(level domain.NoticeLevel) []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notice
	for _, x := range n.notices {
		if x.Level == level {
			out = append(out, x)
		}
	}
	return out
}

// recordingReporter keeps what the controller asked to render.
type recordingReporter struct {
	allocations [][]domain.AllocationEntry
	emulations  [][]domain.EmulationSample
	variants    [][]domain.Variant
}

func (r *recordingReporter) PrintAllocation(entries []domain.AllocationEntry) {
	r.allocations = append(r.allocations, entries)
}

func (r *recordingReporter) PrintEmulation(samples []domain.EmulationSample) {
	r.emulations = append(r.emulations, samples)
}

func (r *recordingReporter) PrintVariants(variants []domain.Variant) {
	r.variants = append(r.variants, variants)
}

type memJournal struct {
	mu   sync.Mutex
	recs []domain.OperationRecord
}

func (j *memJournal) RecordOperation(_ context.Context, rec domain.OperationRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return nil
}

func (j *memJournal) RecentOperations(_ context.Context, limit int) ([]domain.OperationRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.OperationRecord, 0, len(j.recs))
	for i := len(j.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.recs[i])
	}
	return out, nil
}

func (j *memJournal) Close() error { return nil }

// validationError mimics the analytics adapter error with a user message.
type validationError struct{ msg string }

func (e *validationError) Error() string       { return "analytics: " + e.msg }
func (e *validationError) UserMessage() string { return e.msg }

var errBoom = errors.New("boom")
