package http

import (
	"errors"
	"time"

	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type signInReq struct {
	Email string `json:"email"`
}

func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInReq
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := h.identity.RequestSignIn(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"sent": true})
}

type sessionReq struct {
	Token string `json:"token"`
}

// CompleteSignIn verifies a link token from the query or the body, signs the
// workspace in and loads the user's stored résumé. A failed load keeps the
// sign-in and is reported in loadError.
func (h *Handler) CompleteSignIn(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" && len(c.Body()) > 0 {
		var req sessionReq
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		token = req.Token
	}
	ctx := c.UserContext()
	s, err := h.identity.CompleteSignIn(ctx, token)
	if err != nil {
		return err
	}

	cookie, exp, err := h.sessions.Issue(s)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    cookie,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  exp,
	})

	w := workspaceOf(c)
	loaded, err := w.AttachSession(ctx, s)
	body := fiber.Map{"session": s, "loaded": loaded}
	if err != nil {
		h.logger.Warn("stored resume not loaded", zap.String("workspace", w.ID), zap.String("user_id", s.UserID), zap.Error(err))
		body["loadError"] = toAppError(err).Message
	}
	return c.JSON(body)
}

func (h *Handler) SignOut(c *fiber.Ctx) error {
	workspaceOf(c).SignOut()
	c.Cookie(&fiber.Cookie{Name: SessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), HTTPOnly: true})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	s := workspaceOf(c).Session()
	return c.JSON(fiber.Map{"signedIn": s != nil, "session": s})
}

func (h *Handler) Save(c *fiber.Ctx) error {
	w := workspaceOf(c)
	if err := w.Save(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"saved": w.Persistence.Record()})
}

func (h *Handler) Load(c *fiber.Ctx) error {
	w := workspaceOf(c)
	loaded, err := w.Load(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"loaded": loaded, "document": w.Doc.Snapshot()})
}

func (h *Handler) CheckoutState(c *fiber.Ctx) error {
	return c.JSON(workspaceOf(c).Checkout.State())
}

func (h *Handler) CheckoutOpen(c *fiber.Ctx) error {
	return c.JSON(workspaceOf(c).Checkout.Open())
}

func (h *Handler) CheckoutClose(c *fiber.Ctx) error {
	return c.JSON(workspaceOf(c).Checkout.Close())
}

type methodReq struct {
	Method string `json:"method"`
}

func (h *Handler) CheckoutMethod(c *fiber.Ctx) error {
	var req methodReq
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	m, err := usecase.ParsePaymentMethod(req.Method)
	if err != nil {
		return err
	}
	st, err := workspaceOf(c).Checkout.SelectMethod(m)
	return checkoutResult(c, st, err)
}

func (h *Handler) CheckoutCard(c *fiber.Ctx) error {
	var card usecase.Card
	if err := decodeBody(c, &card); err != nil {
		return err
	}
	st, err := workspaceOf(c).Checkout.PayCard(card)
	return checkoutResult(c, st, err)
}

func (h *Handler) CheckoutPix(c *fiber.Ctx) error {
	st, err := workspaceOf(c).Checkout.StartPix()
	return checkoutResult(c, st, err)
}

// CheckoutRetry runs a failed export again. An export failure is reported
// through the returned state, not as an HTTP error.
func (h *Handler) CheckoutRetry(c *fiber.Ctx) error {
	co := workspaceOf(c).Checkout
	err := co.RetryExport(c.UserContext())
	if errors.Is(err, domain.ErrCheckoutClosed) || errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}
	return c.JSON(co.State())
}

func checkoutResult(c *fiber.Ctx, st usecase.CheckoutState, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (h *Handler) Download(c *fiber.Ctx) error {
	art, err := workspaceOf(c).Artifact()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(art.FileName)
	return c.Send(art.PDF)
}
