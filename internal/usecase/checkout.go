package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"resume-builder/internal/domain"

	"go.uber.org/zap"
)

type CheckoutStatus string

const (
	StatusIdle       CheckoutStatus = "idle"
	StatusProcessing CheckoutStatus = "processing"
	StatusWaitingPix CheckoutStatus = "waiting_confirmation"
	StatusApproved   CheckoutStatus = "approved"
	StatusDeclined   CheckoutStatus = "declined"
)

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodPix  PaymentMethod = "pix"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCard, MethodPix:
		return m, nil
	}
	return "", &domain.ValidationError{Fields: map[string]string{"method": "Forma de pagamento inválida"}}
}

// PriceCents is the export price, R$ 9,90.
const PriceCents = 990

// DefaultApprovedExportDelay is how long the approved screen shows before export.
const DefaultApprovedExportDelay = 2 * time.Second

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }

type Card struct {
	Number string `json:"number" validate:"numeric,min=13,max=19"`
	Expiry string `json:"expiry" validate:"expiry"`
	CVV    string `json:"cvv" validate:"numeric,min=3,max=4"`
	Holder string `json:"holder" validate:"min=2"`
}

// Normalized strips separators from the number and trims the other fields.
func (c Card) Normalized() Card {
	return Card{
		Number: digitsOnly(c.Number),
		Expiry: strings.TrimSpace(c.Expiry),
		CVV:    strings.TrimSpace(c.CVV),
		Holder: strings.TrimSpace(c.Holder),
	}
}

// PaymentOutcome is what the gateway reports for one charge.
type PaymentOutcome struct {
	Approved bool
	Reason   string
}

// PaymentGateway charges asynchronously. done is called at most once and
// never before the starting call returns; cancel suppresses it.
type PaymentGateway interface {
	ChargeCard(card Card, amountCents int, done func(PaymentOutcome)) (cancel func())
	StartPix(amountCents int, done func(PaymentOutcome)) (payload string, cancel func())
}

// CheckoutState is a read-only view of the checkout.
type CheckoutState struct {
	Open          bool           `json:"open"`
	Method        PaymentMethod  `json:"method"`
	Status        CheckoutStatus `json:"status"`
	PriceCents    int            `json:"priceCents"`
	DeclineReason string         `json:"declineReason,omitempty"`
	PixPayload    string         `json:"pixPayload,omitempty"`
	Exporting     bool           `json:"exporting"`
	Exported      bool           `json:"exported"`
	ExportError   string         `json:"exportError,omitempty"`
}

// Checkout is the payment state machine that unlocks an export. Every
// Open and Close starts a new epoch; callbacks from an older epoch are
// dropped.
type Checkout struct {
	gateway     PaymentGateway
	sched       Scheduler
	exportDelay time.Duration
	export      func(ctx context.Context) error
	logger      *zap.Logger
	metrics     Metrics

	mu           sync.Mutex
	epoch        uint64
	open         bool
	method       PaymentMethod
	status       CheckoutStatus
	reason       string
	pixPayload   string
	exporting    bool
	exported     bool
	exportErr    error
	cancelCharge func()
	exportTimer  Timer
}

type CheckoutConfig struct {
	Gateway     PaymentGateway
	Scheduler   Scheduler
	ExportDelay time.Duration
	// Export produces and stores the artifact once payment is approved.
	Export  func(ctx context.Context) error
	Logger  *zap.Logger
	Metrics Metrics
}

func NewCheckout(cfg CheckoutConfig) *Checkout {
	c := &Checkout{
		gateway:     cfg.Gateway,
		sched:       cfg.Scheduler,
		exportDelay: cfg.ExportDelay,
		export:      cfg.Export,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		method:      MethodCard,
		status:      StatusIdle,
	}
	if c.sched == nil {
		c.sched = RealScheduler{}
	}
	if c.exportDelay <= 0 {
		c.exportDelay = DefaultApprovedExportDelay
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.metrics == nil {
		c.metrics = NopMetrics{}
	}
	return c
}

func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Checkout) stateLocked() CheckoutState {
	st := CheckoutState{
		Open:          c.open,
		Method:        c.method,
		Status:        c.status,
		PriceCents:    PriceCents,
		DeclineReason: c.reason,
		PixPayload:    c.pixPayload,
		Exporting:     c.exporting,
		Exported:      c.exported,
	}
	if c.exportErr != nil {
		st.ExportError = c.exportErr.Error()
	}
	return st
}

func (c *Checkout) setStatus(s CheckoutStatus) {
	c.status = s
	c.metrics.CheckoutTransition(string(s))
	c.logger.Debug("checkout transition", zap.String("status", string(s)), zap.String("method", string(c.method)))
}

// cancelPendingLocked stops gateway work and the export timer and starts a
// new epoch.
func (c *Checkout) cancelPendingLocked() {
	if c.cancelCharge != nil {
		c.cancelCharge()
		c.cancelCharge = nil
	}
	if c.exportTimer != nil {
		c.exportTimer.Stop()
		c.exportTimer = nil
	}
	c.epoch++
}

func (c *Checkout) Open() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPendingLocked()
	c.open = true
	c.method = MethodCard
	c.reason, c.pixPayload = "", ""
	c.exporting, c.exported, c.exportErr = false, false, nil
	c.setStatus(StatusIdle)
	return c.stateLocked()
}

func (c *Checkout) Close() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPendingLocked()
	c.open = false
	c.reason, c.pixPayload = "", ""
	c.setStatus(StatusIdle)
	return c.stateLocked()
}

func (c *Checkout) SelectMethod(m PaymentMethod) (CheckoutState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return c.stateLocked(), domain.ErrCheckoutClosed
	}
	if c.status != StatusIdle && c.status != StatusDeclined {
		return c.stateLocked(), domain.ErrMethodLocked
	}
	c.method = m
	c.reason, c.pixPayload = "", ""
	c.setStatus(StatusIdle)
	return c.stateLocked(), nil
}

func (c *Checkout) PayCard(card Card) (CheckoutState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return c.stateLocked(), domain.ErrCheckoutClosed
	}
	if c.method != MethodCard || (c.status != StatusIdle && c.status != StatusDeclined) {
		return c.stateLocked(), fmt.Errorf("%w: pay card in %s/%s", domain.ErrInvalidTransition, c.method, c.status)
	}
	card = card.Normalized()
	if err := checkStruct(card); err != nil {
		return c.stateLocked(), err
	}
	c.reason = ""
	c.setStatus(StatusProcessing)
	epoch := c.epoch
	c.cancelCharge = c.gateway.ChargeCard(card, PriceCents, func(o PaymentOutcome) { c.settle(epoch, o) })
	return c.stateLocked(), nil
}

func (c *Checkout) StartPix() (CheckoutState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return c.stateLocked(), domain.ErrCheckoutClosed
	}
	if c.method != MethodPix || (c.status != StatusIdle && c.status != StatusDeclined) {
		return c.stateLocked(), fmt.Errorf("%w: start pix in %s/%s", domain.ErrInvalidTransition, c.method, c.status)
	}
	c.reason = ""
	epoch := c.epoch
	payload, cancel := c.gateway.StartPix(PriceCents, func(o PaymentOutcome) { c.settle(epoch, o) })
	c.pixPayload, c.cancelCharge = payload, cancel
	c.setStatus(StatusWaitingPix)
	return c.stateLocked(), nil
}

func (c *Checkout) settle(epoch uint64, o PaymentOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || !c.open {
		return
	}
	if c.status != StatusProcessing && c.status != StatusWaitingPix {
		return
	}
	c.cancelCharge = nil
	if !o.Approved {
		c.reason = o.Reason
		c.setStatus(StatusDeclined)
		return
	}
	c.setStatus(StatusApproved)
	c.exportTimer = c.sched.AfterFunc(c.exportDelay, func() {
		_ = c.runExport(context.Background(), epoch)
	})
}

// RetryExport runs a failed export again and returns its result.
func (c *Checkout) RetryExport(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return domain.ErrCheckoutClosed
	}
	if c.status != StatusApproved || c.exportErr == nil || c.exporting {
		c.mu.Unlock()
		return fmt.Errorf("%w: retry export in %s", domain.ErrInvalidTransition, c.status)
	}
	epoch := c.epoch
	c.mu.Unlock()
	return c.runExport(ctx, epoch)
}

// runExport performs the export at most once per approved payment.
func (c *Checkout) runExport(ctx context.Context, epoch uint64) error {
	c.mu.Lock()
	if epoch != c.epoch || !c.open || c.status != StatusApproved || c.exported || c.exporting {
		c.mu.Unlock()
		return nil
	}
	c.exporting, c.exportErr, c.exportTimer = true, nil, nil
	c.mu.Unlock()

	err := c.export(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return err
	}
	c.exporting = false
	if err != nil {
		c.exportErr = err
		c.logger.Warn("export after payment failed", zap.Error(err))
		return err
	}
	c.exported = true
	c.open = false
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LuhnValid reports whether a digit string passes the Luhn checksum.
func LuhnValid(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
