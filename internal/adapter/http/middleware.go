package http

import (
	"time"

	"resume-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	WorkspaceCookie = "rb_ws"
	SessionCookie   = "rb_session"

	localsWorkspace = "workspace"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// AccessLog logs and measures each request. Errors are rendered first so
// the logged status is the one sent.
func AccessLog(logger *zap.Logger, obs RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid := c.Get(fiber.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, rid)

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		dur := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		if obs != nil {
			obs.ObserveHTTP(c.Method(), route, status, dur)
		}
		logger.Debug("http access",
			zap.String("rid", rid),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", dur))
		return nil
	}
}

// resolveWorkspace attaches the caller's workspace, creating one and
// setting its cookie when needed. A valid session cookie signs the
// workspace in.
func (h *Handler) resolveWorkspace(c *fiber.Ctx) error {
	ctx := c.UserContext()
	w, created := h.workspaces.Resolve(ctx, c.Cookies(WorkspaceCookie))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     WorkspaceCookie,
			Value:    w.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(h.workspaceTTL),
		})
	}

	if tok := c.Cookies(SessionCookie); tok != "" && w.Session() == nil {
		s, err := h.sessions.Parse(tok)
		switch {
		case err != nil:
			c.ClearCookie(SessionCookie)
		case created:
			if _, err := w.AttachSession(ctx, s); err != nil {
				h.logger.Warn("stored resume not loaded", zap.String("workspace", w.ID), zap.Error(err))
			}
		default:
			w.RestoreSession(s)
		}
	}

	c.Locals(localsWorkspace, w)
	return c.Next()
}

func workspaceOf(c *fiber.Ctx) *usecase.Workspace {
	return c.Locals(localsWorkspace).(*usecase.Workspace)
}
