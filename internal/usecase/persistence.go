package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResumeRepository is the remote document store.
type ResumeRepository interface {
	// LatestByUser returns the most recently updated row or domain.ErrNotFound.
	LatestByUser(ctx context.Context, userID string) (*domain.StoredResume, error)
	Insert(ctx context.Context, r *domain.StoredResume) error
	Update(ctx context.Context, r *domain.StoredResume) error
}

// Metrics receives business counters. Labels are short result/status names.
type Metrics interface {
	SaveResult(result string)
	ExportResult(result string)
	CheckoutTransition(status string)
}

type NopMetrics struct{}

func (NopMetrics) SaveResult(string)         {}
func (NopMetrics) ExportResult(string)       {}
func (NopMetrics) CheckoutTransition(string) {}

type saveRequest struct {
	userID string
	doc    model.Resume
}

// Persistence saves and loads one workspace's document. A nil repository
// puts it in disabled mode.
type Persistence struct {
	repo    ResumeRepository
	logger  *zap.Logger
	metrics Metrics
	now     func() time.Time

	mu       sync.Mutex
	cond     *sync.Cond
	record   *domain.SavedDocumentRecord
	writing  bool
	pending  *saveRequest
	gen      uint64
	savedGen uint64
	lastErr  error
}

func NewPersistence(repo ResumeRepository, logger *zap.Logger, metrics Metrics) *Persistence {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	p := &Persistence{repo: repo, logger: logger, metrics: metrics, now: time.Now}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Persistence) Enabled() bool { return p.repo != nil }

// Record returns a copy of the saved record, or nil before the first save/load.
func (p *Persistence) Record() *domain.SavedDocumentRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.record == nil {
		return nil
	}
	rec := *p.record
	return &rec
}

// Forget drops the saved record. The next save looks the user's row up
// again before deciding between update and insert.
func (p *Persistence) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record = nil
}

// Load fetches the user's latest document. ok is false when the user has
// none stored.
func (p *Persistence) Load(ctx context.Context, userID string) (model.Resume, bool, error) {
	if p.repo == nil {
		return model.Resume{}, false, domain.ErrBackendDisabled
	}
	if userID == "" {
		return model.Resume{}, false, domain.ErrNoSession
	}
	row, err := p.repo.LatestByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return model.Resume{}, false, nil
	}
	if err != nil {
		return model.Resume{}, false, fmt.Errorf("load resume: %w", err)
	}
	res, err := model.Decode(row.Content)
	if err != nil {
		return model.Resume{}, false, fmt.Errorf("load resume %s: %w", row.ID, err)
	}
	p.mu.Lock()
	p.record = &domain.SavedDocumentRecord{ID: row.ID, UserID: row.UserID, LastSavedAt: row.UpdatedAt}
	p.mu.Unlock()
	p.logger.Info("resume loaded", zap.String("user_id", userID), zap.String("record_id", row.ID.String()))
	return res, true, nil
}

// Save writes doc for userID. Only one write runs at a time; callers that
// arrive meanwhile are merged into a single follow-up write of the newest
// document and return once it finishes.
func (p *Persistence) Save(ctx context.Context, userID string, doc model.Resume) error {
	if p.repo == nil {
		return domain.ErrBackendDisabled
	}
	if userID == "" {
		return domain.ErrNoSession
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	mine := p.gen
	p.pending = &saveRequest{userID: userID, doc: doc.Clone()}

	if p.writing {
		for p.savedGen < mine {
			p.cond.Wait()
		}
		return p.lastErr
	}

	p.writing = true
	for p.pending != nil {
		req, covers, rec := p.pending, p.gen, p.record
		p.pending = nil
		p.mu.Unlock()
		next, err := p.write(ctx, req, rec)
		p.mu.Lock()
		if err == nil && p.record == rec {
			p.record = next
		}
		p.savedGen, p.lastErr = covers, err
		p.cond.Broadcast()
	}
	p.writing = false
	return p.lastErr
}

func (p *Persistence) write(ctx context.Context, req *saveRequest, rec *domain.SavedDocumentRecord) (*domain.SavedDocumentRecord, error) {
	content, err := json.Marshal(req.doc)
	if err != nil {
		return nil, fmt.Errorf("encode resume: %w", err)
	}
	if rec == nil || rec.UserID != req.userID {
		latest, err := p.repo.LatestByUser(ctx, req.userID)
		switch {
		case err == nil:
			rec = &domain.SavedDocumentRecord{ID: latest.ID, UserID: latest.UserID, LastSavedAt: latest.UpdatedAt}
		case !errors.Is(err, domain.ErrNotFound):
			p.metrics.SaveResult("error")
			return nil, fmt.Errorf("look up resume: %w", err)
		}
	}

	now := p.now().UTC()
	row := &domain.StoredResume{
		UserID:    req.userID,
		Title:     req.doc.Title(),
		Content:   content,
		UpdatedAt: now,
	}

	if rec != nil && rec.UserID == req.userID {
		row.ID = rec.ID
		err := p.repo.Update(ctx, row)
		switch {
		case err == nil:
			p.metrics.SaveResult("updated")
			p.logger.Info("resume saved", zap.String("user_id", req.userID), zap.String("record_id", row.ID.String()))
			return &domain.SavedDocumentRecord{ID: row.ID, UserID: req.userID, LastSavedAt: now}, nil
		case !errors.Is(err, domain.ErrNotFound):
			p.metrics.SaveResult("error")
			return nil, fmt.Errorf("update resume %s: %w", rec.ID, err)
		}
		// the row is gone remotely; store a new one
	}
	row.ID = uuid.New()
	row.CreatedAt = now
	if err := p.repo.Insert(ctx, row); err != nil {
		p.metrics.SaveResult("error")
		return nil, fmt.Errorf("insert resume: %w", err)
	}
	p.metrics.SaveResult("inserted")
	p.logger.Info("resume saved", zap.String("user_id", req.userID), zap.String("record_id", row.ID.String()))
	return &domain.SavedDocumentRecord{ID: row.ID, UserID: req.userID, LastSavedAt: now}, nil
}
