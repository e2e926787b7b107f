package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"
	"resume-builder/internal/render"
	"resume-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// SessionCodec issues and reads the session cookie.
type SessionCodec interface {
	Issue(s domain.Session) (string, time.Time, error)
	Parse(token string) (domain.Session, error)
}

type Config struct {
	Workspaces   *usecase.Workspaces
	WorkspaceTTL time.Duration
	Renderer     *render.Renderer
	Identity     *usecase.Identity
	Sessions     SessionCodec
	Suggester    usecase.Suggester
	// Backend names the persistence backend for /healthz; "" means disabled.
	Backend string
	Metrics nethttp.Handler
	Logger  *zap.Logger
}

type Handler struct {
	workspaces   *usecase.Workspaces
	workspaceTTL time.Duration
	renderer     *render.Renderer
	identity     *usecase.Identity
	sessions     SessionCodec
	suggester    usecase.Suggester
	backend      string
	metrics      nethttp.Handler
	logger       *zap.Logger
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.WorkspaceTTL <= 0 {
		cfg.WorkspaceTTL = usecase.DefaultWorkspaceTTL
	}
	return &Handler{
		workspaces:   cfg.Workspaces,
		workspaceTTL: cfg.WorkspaceTTL,
		renderer:     cfg.Renderer,
		identity:     cfg.Identity,
		sessions:     cfg.Sessions,
		suggester:    cfg.Suggester,
		backend:      cfg.Backend,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// NewApp builds the fiber app with every route registered.
func NewApp(h *Handler, obs RequestObserver, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(h.logger),
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(AccessLog(h.logger, obs))
	app.Use(recover.New())
	h.Register(app)
	return app
}

func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)
	if h.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.metrics))
	}

	api := app.Group("/api", h.resolveWorkspace)

	api.Get("/resume", h.GetResume)
	api.Patch("/resume/personal", h.UpdatePersonal)
	api.Post("/resume/personal/photo", h.UploadPhoto)
	api.Put("/resume/summary", h.UpdateSummary)
	api.Post("/resume/save", h.Save)
	api.Post("/resume/load", h.Load)
	api.Put("/resume/:section/draft", h.SetDraft)
	api.Post("/resume/:section", h.Submit)
	api.Delete("/resume/:section/:id", h.Remove)

	api.Put("/template", h.SelectTemplate)
	api.Get("/preview", h.Preview)

	api.Get("/suggestions/:kind", h.Suggestions)
	api.Post("/suggestions/summary/adopt", h.AdoptSummary)
	api.Post("/suggestions/skills/adopt", h.AdoptSkills)

	api.Post("/auth/signin", h.SignIn)
	api.Get("/auth/session", h.CompleteSignIn)
	api.Post("/auth/session", h.CompleteSignIn)
	api.Post("/auth/signout", h.SignOut)
	api.Get("/auth/me", h.Me)

	api.Get("/checkout", h.CheckoutState)
	api.Post("/checkout/open", h.CheckoutOpen)
	api.Post("/checkout/method", h.CheckoutMethod)
	api.Post("/checkout/card", h.CheckoutCard)
	api.Post("/checkout/pix", h.CheckoutPix)
	api.Post("/checkout/close", h.CheckoutClose)
	api.Post("/checkout/retry", h.CheckoutRetry)

	api.Get("/export/download", h.Download)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	persistence := h.backend
	if persistence == "" {
		persistence = "disabled"
	}
	return c.JSON(fiber.Map{"status": "ok", "persistence": persistence, "workspaces": h.workspaces.Len()})
}

func decodeBody(c *fiber.Ctx, v interface{}) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return NewAppError(fiber.StatusBadRequest, "invalid payload", nil, err)
	}
	return nil
}

func (h *Handler) GetResume(c *fiber.Ctx) error {
	w := workspaceOf(c)
	doc := w.Doc.Snapshot()
	return c.JSON(fiber.Map{
		"workspace":          w.ID,
		"document":           doc,
		"template":           w.Template(),
		"session":            w.Session(),
		"saved":              w.Persistence.Record(),
		"persistenceEnabled": w.Persistence.Enabled(),
		"personalInfoErrors": usecase.PersonalInfoErrors(doc.PersonalInfo),
	})
}

func (h *Handler) UpdatePersonal(c *fiber.Ctx) error {
	var patch model.PersonalInfoPatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	// photos only arrive through the upload endpoint
	patch.Photo = nil
	info, errs := workspaceOf(c).Forms.UpdatePersonalInfo(patch)
	return c.JSON(fiber.Map{"personalInfo": info, "errors": errs})
}

func (h *Handler) UploadPhoto(c *fiber.Ctx) error {
	w := workspaceOf(c)
	seq := w.Photos.Begin()
	fh, err := c.FormFile("photo")
	if err != nil {
		return NewAppError(fiber.StatusBadRequest, "missing photo file", nil, err)
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	photo, err := w.Photos.Complete(seq, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"photo": photo})
}

type summaryReq struct {
	Summary string `json:"summary"`
}

func (h *Handler) UpdateSummary(c *fiber.Ctx) error {
	var req summaryReq
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	workspaceOf(c).Doc.UpdateSummary(req.Summary)
	return c.JSON(fiber.Map{"summary": req.Summary})
}

func (h *Handler) SetDraft(c *fiber.Ctx) error {
	sec, err := usecase.ParseSection(c.Params("section"))
	if err != nil {
		return err
	}
	if err := workspaceOf(c).Forms.SetDraft(sec, json.RawMessage(c.Body())); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Submit commits the section draft. A request body replaces the draft first.
func (h *Handler) Submit(c *fiber.Ctx) error {
	sec, err := usecase.ParseSection(c.Params("section"))
	if err != nil {
		return err
	}
	forms := workspaceOf(c).Forms
	if body := c.Body(); len(strings.TrimSpace(string(body))) > 0 {
		if err := forms.SetDraft(sec, json.RawMessage(body)); err != nil {
			return err
		}
	}
	entry, err := forms.Submit(sec)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

func (h *Handler) Remove(c *fiber.Ctx) error {
	sec, err := usecase.ParseSection(c.Params("section"))
	if err != nil {
		return err
	}
	key, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return NewAppError(fiber.StatusBadRequest, "invalid id", nil, err)
	}
	removed := workspaceOf(c).Forms.Remove(sec, key)
	return c.JSON(fiber.Map{"removed": removed})
}

type templateReq struct {
	Template string `json:"template"`
}

func (h *Handler) SelectTemplate(c *fiber.Ctx) error {
	var req templateReq
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	t, err := render.ParseTemplate(req.Template)
	if err != nil {
		return err
	}
	workspaceOf(c).SetTemplate(t)
	return c.JSON(fiber.Map{"template": t})
}

func (h *Handler) Preview(c *fiber.Ctx) error {
	w := workspaceOf(c)
	t := w.Template()
	if q := c.Query("template"); q != "" {
		var err error
		if t, err = render.ParseTemplate(q); err != nil {
			return err
		}
	}
	html, err := h.renderer.Render(t, w.Doc.Snapshot())
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(html)
}

func (h *Handler) Suggestions(c *fiber.Ctx) error {
	w := workspaceOf(c)
	keyword := c.Query("keyword")
	if keyword == "" {
		keyword = w.Doc.Snapshot().PersonalInfo.Title
	}
	ctx := c.UserContext()
	var (
		out []string
		err error
	)
	switch c.Params("kind") {
	case "summary":
		out, err = h.suggester.Summaries(ctx, keyword)
	case "skills":
		out, err = h.suggester.Skills(ctx, keyword)
	default:
		return NewAppError(fiber.StatusNotFound, "unknown suggestion kind", nil, nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"suggestions": out})
}

type adoptSummaryReq struct {
	Text string `json:"text"`
}

func (h *Handler) AdoptSummary(c *fiber.Ctx) error {
	var req adoptSummaryReq
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	workspaceOf(c).Doc.UpdateSummary(req.Text)
	return c.JSON(fiber.Map{"summary": req.Text})
}

type adoptSkillsReq struct {
	Names []string `json:"names"`
}

func (h *Handler) AdoptSkills(c *fiber.Ctx) error {
	var req adoptSkillsReq
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	doc := workspaceOf(c).Doc
	added := make([]model.Skill, 0, len(req.Names))
	for _, name := range req.Names {
		if name = strings.TrimSpace(name); name != "" {
			added = append(added, doc.AddSkill(model.Skill{Name: name}))
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"skills": added})
}
