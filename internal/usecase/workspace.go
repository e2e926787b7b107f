package usecase

import (
	"context"
	"sync"
	"time"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"
	"resume-builder/internal/render"

	"go.uber.org/zap"
)

// SnapshotStore keeps a copy of each workspace document across restarts.
type SnapshotStore interface {
	Get(ctx context.Context, workspaceID string) (model.Resume, bool, error)
	Put(ctx context.Context, workspaceID string, doc model.Resume, ttl time.Duration) error
	Delete(ctx context.Context, workspaceID string) error
}

// Workspace is everything one browsing session works on: the document, the
// drafts, the template choice, the session and the checkout.
type Workspace struct {
	ID          string
	Doc         *Document
	Forms       *Forms
	Photos      *PhotoUploads
	Persistence *Persistence
	Checkout    *Checkout

	exporter *Exporter
	logger   *zap.Logger

	mu       sync.Mutex
	template render.Template
	session  *domain.Session
	artifact *Artifact
	lastSeen time.Time
}

func (w *Workspace) Template() render.Template {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.template
}

// SetTemplate changes the selected template. The document is not touched.
func (w *Workspace) SetTemplate(t render.Template) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.template = t
}

func (w *Workspace) Session() *domain.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return nil
	}
	s := *w.session
	return &s
}

// AttachSession signs the workspace in and loads the user's stored document.
// A different user than before starts a fresh save record. loaded reports
// whether a stored document replaced the local one.
func (w *Workspace) AttachSession(ctx context.Context, s domain.Session) (loaded bool, err error) {
	w.mu.Lock()
	prev := w.session
	w.session = &s
	w.mu.Unlock()

	if prev == nil || prev.UserID != s.UserID {
		w.Persistence.Forget()
	}
	if !w.Persistence.Enabled() {
		return false, nil
	}
	return w.Load(ctx)
}

// RestoreSession attaches a session carried over from an earlier workspace
// without touching the document.
func (w *Workspace) RestoreSession(s domain.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		w.session = &s
	}
}

// SignOut clears the session. The local document stays as it is.
func (w *Workspace) SignOut() {
	w.mu.Lock()
	w.session = nil
	w.mu.Unlock()
	w.Persistence.Forget()
	w.logger.Info("signed out", zap.String("workspace", w.ID))
}

func (w *Workspace) userID() string {
	if s := w.Session(); s != nil {
		return s.UserID
	}
	return ""
}

func (w *Workspace) Save(ctx context.Context) error {
	uid := w.userID()
	if uid == "" {
		return domain.ErrNoSession
	}
	return w.Persistence.Save(ctx, uid, w.Doc.Snapshot())
}

// Load replaces the document with the stored one, if any.
func (w *Workspace) Load(ctx context.Context) (bool, error) {
	uid := w.userID()
	if uid == "" {
		return false, domain.ErrNoSession
	}
	res, ok, err := w.Persistence.Load(ctx, uid)
	if err != nil || !ok {
		return false, err
	}
	w.Doc.Replace(res)
	return true, nil
}

// Artifact returns the last exported document.
func (w *Workspace) Artifact() (*Artifact, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.artifact == nil {
		return nil, domain.ErrNoArtifact
	}
	return w.artifact, nil
}

func (w *Workspace) export(ctx context.Context) error {
	art, err := w.exporter.Export(ctx, w.Template(), w.Doc.Snapshot())
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.artifact = art
	w.mu.Unlock()
	return nil
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

// WorkspaceDeps are the collaborators shared by every workspace.
type WorkspaceDeps struct {
	Repo          ResumeRepository
	Exporter      *Exporter
	Gateway       PaymentGateway
	Scheduler     Scheduler
	ExportDelay   time.Duration
	MaxPhotoBytes int64
	Snapshots     SnapshotStore
	NewID         IDGenerator
	Logger        *zap.Logger
	Metrics       Metrics
}

// DefaultWorkspaceTTL is how long an untouched workspace is kept.
const DefaultWorkspaceTTL = 24 * time.Hour

// Workspaces is the registry of live workspaces.
type Workspaces struct {
	deps WorkspaceDeps
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	items map[string]*Workspace
}

func NewWorkspaces(deps WorkspaceDeps, ttl time.Duration) *Workspaces {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	if deps.NewID == nil {
		deps.NewID = NewUUID
	}
	if ttl <= 0 {
		ttl = DefaultWorkspaceTTL
	}
	return &Workspaces{deps: deps, ttl: ttl, now: time.Now, items: map[string]*Workspace{}}
}

func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.items)
}

// Resolve returns the workspace for id, restoring it from the snapshot
// store when it is not live. An empty or unknown id gets a new workspace;
// created reports that case.
func (ws *Workspaces) Resolve(ctx context.Context, id string) (w *Workspace, created bool) {
	now := ws.now()
	ws.mu.Lock()
	if live, ok := ws.items[id]; ok && id != "" {
		ws.mu.Unlock()
		live.touch(now)
		return live, false
	}
	ws.mu.Unlock()

	var restored *model.Resume
	if id != "" && ws.deps.Snapshots != nil {
		doc, ok, err := ws.deps.Snapshots.Get(ctx, id)
		switch {
		case err != nil:
			ws.deps.Logger.Warn("workspace snapshot unavailable", zap.String("workspace", id), zap.Error(err))
		case ok:
			restored = &doc
		}
	}
	if restored == nil {
		id = ws.deps.NewID()
		created = true
	}

	w = ws.build(id)
	if restored != nil {
		w.Doc.Replace(*restored)
	}
	w.touch(now)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if existing, ok := ws.items[id]; ok {
		// a concurrent request restored it first
		w.Checkout.Close()
		return existing, false
	}
	ws.items[id] = w
	ws.observe(w)
	ws.deps.Logger.Info("workspace opened", zap.String("workspace", id), zap.Bool("restored", restored != nil))
	return w, created
}

func (ws *Workspaces) build(id string) *Workspace {
	d := ws.deps
	doc := NewDocument(d.NewID)
	w := &Workspace{
		ID:          id,
		Doc:         doc,
		Forms:       NewForms(doc),
		Photos:      NewPhotoUploads(doc, d.MaxPhotoBytes),
		Persistence: NewPersistence(d.Repo, d.Logger.With(zap.String("workspace", id)), d.Metrics),
		exporter:    d.Exporter,
		logger:      d.Logger,
		template:    render.Default,
	}
	w.Checkout = NewCheckout(CheckoutConfig{
		Gateway:     d.Gateway,
		Scheduler:   d.Scheduler,
		ExportDelay: d.ExportDelay,
		Export:      w.export,
		Logger:      d.Logger.With(zap.String("workspace", id)),
		Metrics:     d.Metrics,
	})
	return w
}

func (ws *Workspaces) observe(w *Workspace) {
	if ws.deps.Snapshots == nil {
		return
	}
	store, ttl, logger, id := ws.deps.Snapshots, ws.ttl, ws.deps.Logger, w.ID
	w.Doc.Subscribe(func(r model.Resume) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Put(ctx, id, r, ttl); err != nil {
			logger.Debug("workspace snapshot not stored", zap.String("workspace", id), zap.Error(err))
		}
	})
}

// Sweep evicts workspaces idle for longer than the TTL and returns how
// many went.
func (ws *Workspaces) Sweep() int {
	now := ws.now()
	ws.mu.Lock()
	var idle []*Workspace
	for id, w := range ws.items {
		if w.idleSince(now) > ws.ttl {
			idle = append(idle, w)
			delete(ws.items, id)
		}
	}
	ws.mu.Unlock()

	for _, w := range idle {
		w.Checkout.Close()
		if ws.deps.Snapshots != nil {
			if err := ws.deps.Snapshots.Delete(context.Background(), w.ID); err != nil {
				ws.deps.Logger.Debug("workspace snapshot not deleted", zap.String("workspace", w.ID), zap.Error(err))
			}
		}
		ws.deps.Logger.Info("workspace evicted", zap.String("workspace", w.ID))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (ws *Workspaces) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := ws.Sweep(); n > 0 {
				ws.deps.Logger.Debug("janitor sweep", zap.Int("evicted", n))
			}
		}
	}
}
