package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"resume-builder/internal/domain"
)

func seqIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func strPtr(s string) *string { return &s }

// memRepo is an in-memory ResumeRepository.
type memRepo struct {
	mu      sync.Mutex
	rows    map[string]domain.StoredResume
	inserts int
	updates int
	failOn  error
	// block, when set, holds every write until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]domain.StoredResume{}} }

func (m *memRepo) LatestByUser(_ context.Context, userID string) (*domain.StoredResume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	var rows []domain.StoredResume
	for _, r := range m.rows {
		if r.UserID == userID {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UpdatedAt.After(rows[j].UpdatedAt) })
	r := rows[0]
	return &r, nil
}

func (m *memRepo) wait() {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
}

func (m *memRepo) Insert(_ context.Context, r *domain.StoredResume) error {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.inserts++
	m.rows[r.ID.String()] = *r
	return nil
}

func (m *memRepo) Update(_ context.Context, r *domain.StoredResume) error {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	cur, ok := m.rows[r.ID.String()]
	if !ok {
		return domain.ErrNotFound
	}
	m.updates++
	cur.Title, cur.Content, cur.UpdatedAt = r.Title, r.Content, r.UpdatedAt
	m.rows[r.ID.String()] = cur
	return nil
}

func (m *memRepo) only() domain.StoredResume {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		return r
	}
	return domain.StoredResume{}
}

// manualScheduler fires timers only when advanced.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock and runs due timers in order, including timers
// scheduled by the ones that fire.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var next *manualTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && t.at <= target && (next == nil || t.at < next.at) {
				next = t
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.fn()
	}
}

// fakeGateway settles charges through a scheduler like the simulated one.
type fakeGateway struct {
	sched   Scheduler
	delay   time.Duration
	outcome PaymentOutcome
	charges int
}

func (g *fakeGateway) ChargeCard(_ Card, _ int, done func(PaymentOutcome)) func() {
	g.charges++
	t := g.sched.AfterFunc(g.delay, func() { done(g.outcome) })
	return func() { t.Stop() }
}

func (g *fakeGateway) StartPix(_ int, done func(PaymentOutcome)) (string, func()) {
	g.charges++
	t := g.sched.AfterFunc(g.delay, func() { done(g.outcome) })
	return "PIX-PAYLOAD", func() { t.Stop() }
}

// fakeSurface records calls and returns canned bytes.
type fakeSurface struct {
	mu        sync.Mutex
	html      string
	selector  string
	scale     float64
	rasterErr error
	pdfErr    error
	calls     int
}

func (f *fakeSurface) Rasterize(_ context.Context, html, selector string, scale float64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.html, f.selector, f.scale = html, selector, scale
	if f.rasterErr != nil {
		return nil, f.rasterErr
	}
	return []byte("PNG"), nil
}

func (f *fakeSurface) PaginateImage(_ context.Context, png []byte) ([]byte, error) {
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return append([]byte("%PDF-"), png...), nil
}

type memArchive struct {
	keys map[string][]byte
}

func (a *memArchive) Put(_ context.Context, key string, data []byte) error {
	if a.keys == nil {
		a.keys = map[string][]byte{}
	}
	a.keys[key] = data
	return nil
}
