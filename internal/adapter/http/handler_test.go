package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-builder/internal/adapter/identity"
	"resume-builder/internal/adapter/payment"
	"resume-builder/internal/domain"
	"resume-builder/internal/model"
	"resume-builder/internal/render"
	"resume-builder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSurface struct{}

func (stubSurface) Rasterize(context.Context, string, string, float64) ([]byte, error) {
	return []byte("PNG"), nil
}

func (stubSurface) PaginateImage(_ context.Context, png []byte) ([]byte, error) {
	return append([]byte("%PDF-"), png...), nil
}

type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.StoredResume
}

func (m *memStore) LatestByUser(_ context.Context, userID string) (*domain.StoredResume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == userID {
			r := r
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) Insert(_ context.Context, r *domain.StoredResume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID.String()] = *r
	return nil
}

func (m *memStore) Update(_ context.Context, r *domain.StoredResume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID.String()]; !ok {
		return domain.ErrNotFound
	}
	m.rows[r.ID.String()] = *r
	return nil
}

type stepTimer struct {
	at   time.Duration
	fn   func()
	done bool
}

func (t *stepTimer) Stop() bool {
	was := !t.done
	t.done = true
	return was
}

// stepClock fires due timers, including ones scheduled while advancing.
type stepClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*stepTimer
}

func (s *stepClock) AfterFunc(d time.Duration, fn func()) usecase.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &stepTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *stepClock) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var due *stepTimer
		for _, t := range s.timers {
			if !t.done && t.at <= target && (due == nil || t.at < due.at) {
				due = t
			}
		}
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		due.done = true
		s.now = due.at
		s.mu.Unlock()
		due.fn()
	}
}

type testServer struct {
	t       *testing.T
	h       *Handler
	clock   *stepClock
	links   *identity.LocalProvider
	cookies map[string]string
}

type memSnapshots struct {
	mu   sync.Mutex
	docs map[string]model.Resume
}

func (m *memSnapshots) Get(_ context.Context, id string) (model.Resume, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	return d, ok, nil
}

func (m *memSnapshots) Put(_ context.Context, id string, doc model.Resume, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = map[string]model.Resume{}
	}
	m.docs[id] = doc
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func newTestServer(t *testing.T, repo usecase.ResumeRepository) (*testServer, func(req *nethttp.Request) *nethttp.Response) {
	t.Helper()
	return newTestServerWith(t, repo, nil)
}

func newTestServerWith(t *testing.T, repo usecase.ResumeRepository, snaps usecase.SnapshotStore) (*testServer, func(req *nethttp.Request) *nethttp.Response) {
	t.Helper()
	renderer, err := render.New()
	require.NoError(t, err)
	clock := &stepClock{}
	links := identity.NewLocalProvider("link-secret", "http://localhost:3000", nil)

	ws := usecase.NewWorkspaces(usecase.WorkspaceDeps{
		Repo:      repo,
		Exporter:  usecase.NewExporter(renderer, stubSurface{}, nil, nil, nil),
		Gateway:   payment.NewSimulated(clock, 0, 0, nil),
		Scheduler: clock,
		Snapshots: snaps,
	}, time.Hour)
	backend := ""
	if repo != nil {
		backend = "memory"
	}
	h := NewHandler(Config{
		Workspaces: ws,
		Renderer:   renderer,
		Identity:   usecase.NewIdentity(links, nil),
		Sessions:   identity.NewSessionTokens("session-secret", time.Hour),
		Suggester:  usecase.NewLocalSuggester(nil),
		Backend:    backend,
	})
	app := NewApp(h, nil, 4<<20)
	ts := &testServer{t: t, h: h, clock: clock, links: links, cookies: map[string]string{}}

	do := func(req *nethttp.Request) *nethttp.Response {
		for k, v := range ts.cookies {
			req.AddCookie(&nethttp.Cookie{Name: k, Value: v})
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		for _, c := range resp.Cookies() {
			if c.Value == "" {
				delete(ts.cookies, c.Name)
				continue
			}
			ts.cookies[c.Name] = c.Value
		}
		return resp
	}
	return ts, do
}

func jsonReq(method, path string, body interface{}) *nethttp.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *nethttp.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	_, do := newTestServer(t, nil)
	resp := do(httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "disabled", decode(t, resp)["persistence"])
}

func TestWorkspaceCookieIsReused(t *testing.T) {
	ts, do := newTestServer(t, nil)
	do(jsonReq(nethttp.MethodPut, "/api/resume/summary", map[string]string{"summary": "Olá"}))
	require.NotEmpty(t, ts.cookies[WorkspaceCookie])

	body := decode(t, do(jsonReq(nethttp.MethodGet, "/api/resume", nil)))
	assert.Equal(t, ts.cookies[WorkspaceCookie], body["workspace"])
	assert.Equal(t, "Olá", body["document"].(map[string]interface{})["summary"])
	assert.Equal(t, 1, ts.h.workspaces.Len())
}

func TestSubmitSection(t *testing.T) {
	_, do := newTestServer(t, nil)

	resp := do(jsonReq(nethttp.MethodPost, "/api/resume/experience", map[string]string{"role": "E"}))
	require.Equal(t, nethttp.StatusUnprocessableEntity, resp.StatusCode)
	fields := decode(t, resp)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields, "company")

	resp = do(jsonReq(nethttp.MethodPost, "/api/resume/experience", map[string]interface{}{
		"role": "Engineer", "company": "Acme", "location": "Recife", "startDate": "01/2020", "current": true,
	}))
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	entry := decode(t, resp)["entry"].(map[string]interface{})
	assert.Equal(t, "Atual", entry["endDate"])

	resp = do(httptest.NewRequest(nethttp.MethodGet, "/api/preview?template=classic", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	html, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(html), "Engineer, Acme")

	resp = do(httptest.NewRequest(nethttp.MethodDelete, "/api/resume/experience/"+entry["id"].(string), nil))
	assert.Equal(t, true, decode(t, resp)["removed"])
}

func TestDraftThenSubmit(t *testing.T) {
	_, do := newTestServer(t, nil)
	resp := do(jsonReq(nethttp.MethodPut, "/api/resume/certifications/draft", map[string]string{"name": "CKA"}))
	require.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	resp = do(httptest.NewRequest(nethttp.MethodPost, "/api/resume/certifications", nil))
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "CKA", decode(t, resp)["entry"])

	resp = do(httptest.NewRequest(nethttp.MethodDelete, "/api/resume/certifications/"+url.PathEscape("CKA"), nil))
	assert.Equal(t, true, decode(t, resp)["removed"])
}

func TestBadInputStatuses(t *testing.T) {
	_, do := newTestServer(t, nil)
	tests := []struct {
		name string
		req  *nethttp.Request
		want int
	}{
		{"unknown section", jsonReq(nethttp.MethodPost, "/api/resume/hobbies", map[string]string{}), nethttp.StatusBadRequest},
		{"unknown template", jsonReq(nethttp.MethodPut, "/api/template", map[string]string{"template": "fancy"}), nethttp.StatusBadRequest},
		{"malformed body", httptest.NewRequest(nethttp.MethodPut, "/api/resume/summary", strings.NewReader("{")), nethttp.StatusBadRequest},
		{"malformed email", jsonReq(nethttp.MethodPost, "/api/auth/signin", map[string]string{"email": "nope"}), nethttp.StatusBadRequest},
		{"no artifact", httptest.NewRequest(nethttp.MethodGet, "/api/export/download", nil), nethttp.StatusNotFound},
		{"save anonymous", httptest.NewRequest(nethttp.MethodPost, "/api/resume/save", nil), nethttp.StatusUnauthorized},
		{"checkout closed", httptest.NewRequest(nethttp.MethodPost, "/api/checkout/pix", nil), nethttp.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(tt.req)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSaveRequiresSignIn(t *testing.T) {
	ts, do := newTestServer(t, &memStore{rows: map[string]domain.StoredResume{}})

	resp := do(httptest.NewRequest(nethttp.MethodPost, "/api/resume/save", nil))
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["signInRequired"])

	resp = do(jsonReq(nethttp.MethodPost, "/api/auth/signin", map[string]string{"email": " Ana@Example.com "}))
	require.Equal(t, nethttp.StatusAccepted, resp.StatusCode)

	link, err := ts.links.Link("ana@example.com")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	resp = do(httptest.NewRequest(nethttp.MethodGet, u.RequestURI(), nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["loaded"])
	require.NotEmpty(t, ts.cookies[SessionCookie])

	do(jsonReq(nethttp.MethodPut, "/api/resume/summary", map[string]string{"summary": "salvo"}))
	resp = do(httptest.NewRequest(nethttp.MethodPost, "/api/resume/save", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.NotNil(t, decode(t, resp)["saved"])

	// a fresh workspace with the same session cookie loads the saved document
	delete(ts.cookies, WorkspaceCookie)
	body := decode(t, do(jsonReq(nethttp.MethodGet, "/api/resume", nil)))
	assert.Equal(t, "salvo", body["document"].(map[string]interface{})["summary"])
	assert.NotNil(t, body["session"])

	resp = do(httptest.NewRequest(nethttp.MethodPost, "/api/auth/signout", nil))
	require.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
	assert.Equal(t, false, decode(t, do(httptest.NewRequest(nethttp.MethodGet, "/api/auth/me", nil)))["signedIn"])
}

func TestSessionCookieAcrossRestart(t *testing.T) {
	store := &memStore{rows: map[string]domain.StoredResume{}}
	snaps := &memSnapshots{}
	ts, do := newTestServerWith(t, store, snaps)

	link, err := ts.links.Link("ana@example.com")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, do(httptest.NewRequest(nethttp.MethodGet, u.RequestURI(), nil)).StatusCode)
	do(jsonReq(nethttp.MethodPut, "/api/resume/summary", map[string]string{"summary": "antes"}))
	require.Equal(t, nethttp.StatusOK, do(httptest.NewRequest(nethttp.MethodPost, "/api/resume/save", nil)).StatusCode)
	require.Len(t, store.rows, 1)

	// same cookies against a new process: the workspace comes back from its snapshot
	restarted, doAgain := newTestServerWith(t, store, snaps)
	for k, v := range ts.cookies {
		restarted.cookies[k] = v
	}
	body := decode(t, doAgain(jsonReq(nethttp.MethodGet, "/api/resume", nil)))
	assert.Equal(t, ts.cookies[WorkspaceCookie], body["workspace"])
	assert.Equal(t, "antes", body["document"].(map[string]interface{})["summary"])
	assert.NotNil(t, body["session"])

	doAgain(jsonReq(nethttp.MethodPut, "/api/resume/summary", map[string]string{"summary": "depois"}))
	require.Equal(t, nethttp.StatusOK, doAgain(httptest.NewRequest(nethttp.MethodPost, "/api/resume/save", nil)).StatusCode)
	require.Len(t, store.rows, 1, "one stored resume per user")
	for _, row := range store.rows {
		assert.Contains(t, string(row.Content), "depois")
	}

	// an unknown workspace id with the same cookie gets a new workspace that loads the row
	restarted.cookies[WorkspaceCookie] = "gone"
	body = decode(t, doAgain(jsonReq(nethttp.MethodGet, "/api/resume", nil)))
	assert.NotEqual(t, "gone", body["workspace"])
	assert.Equal(t, "depois", body["document"].(map[string]interface{})["summary"])
}

func TestCheckoutCardFlow(t *testing.T) {
	ts, do := newTestServer(t, nil)
	do(jsonReq(nethttp.MethodPatch, "/api/resume/personal", map[string]string{"fullName": "Ana Souza"}))

	body := decode(t, do(httptest.NewRequest(nethttp.MethodPost, "/api/checkout/open", nil)))
	assert.Equal(t, "idle", body["status"])

	resp := do(jsonReq(nethttp.MethodPost, "/api/checkout/card", map[string]string{"number": "12", "expiry": "13/30", "cvv": "1", "holder": "A"}))
	require.Equal(t, nethttp.StatusUnprocessableEntity, resp.StatusCode)

	card := map[string]string{"number": "4111 1111 1111 1111", "expiry": "12/30", "cvv": "123", "holder": "Ana Souza"}
	body = decode(t, do(jsonReq(nethttp.MethodPost, "/api/checkout/card", card)))
	assert.Equal(t, "processing", body["status"])

	resp = do(jsonReq(nethttp.MethodPost, "/api/checkout/method", map[string]string{"method": "pix"}))
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)

	ts.clock.Advance(payment.DefaultCardDelay + usecase.DefaultApprovedExportDelay)

	body = decode(t, do(httptest.NewRequest(nethttp.MethodGet, "/api/checkout", nil)))
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, true, body["exported"])
	assert.Equal(t, false, body["open"])

	resp = do(httptest.NewRequest(nethttp.MethodGet, "/api/export/download", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Ana_Souza_CV.pdf")
	pdf, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestCheckoutPix(t *testing.T) {
	_, do := newTestServer(t, nil)
	do(httptest.NewRequest(nethttp.MethodPost, "/api/checkout/open", nil))
	do(jsonReq(nethttp.MethodPost, "/api/checkout/method", map[string]string{"method": "pix"}))

	body := decode(t, do(httptest.NewRequest(nethttp.MethodPost, "/api/checkout/pix", nil)))
	assert.Equal(t, "waiting_confirmation", body["status"])
	assert.Equal(t, payment.PixPayload, body["pixPayload"])

	body = decode(t, do(httptest.NewRequest(nethttp.MethodPost, "/api/checkout/close", nil)))
	assert.Equal(t, false, body["open"])
}

func TestUploadPhoto(t *testing.T) {
	_, do := newTestServer(t, nil)
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, _ = fw.Write(png)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/api/resume/personal/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := do(req)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(decode(t, resp)["photo"].(string), "data:image/png;base64,"))
}

func TestSuggestions(t *testing.T) {
	_, do := newTestServer(t, nil)
	body := decode(t, do(httptest.NewRequest(nethttp.MethodGet, "/api/suggestions/skills", nil)))
	assert.Len(t, body["suggestions"], usecase.SkillPickCount)

	resp := do(jsonReq(nethttp.MethodPost, "/api/suggestions/skills/adopt", map[string][]string{"names": {"Go", " "}}))
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Len(t, decode(t, resp)["skills"], 1)

	resp = do(httptest.NewRequest(nethttp.MethodGet, "/api/suggestions/poems", nil))
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}
