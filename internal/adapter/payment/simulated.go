package payment

import (
	"time"

	"resume-builder/internal/usecase"

	"go.uber.org/zap"
)

const (
	DefaultCardDelay = 3 * time.Second
	DefaultPixDelay  = 5 * time.Second

	DeclinedCardReason = "Cartão recusado"

	// PixPayload is the static copy-paste code shown while PIX waits.
	PixPayload = "00020126580014BR.GOV.BCB.PIX0136123e4567-e89b-12d3-a456-42661417400052040000530398654049.905802BR5913CV Profissional6009Sao Paulo62070503***6304ABCD"
)

// Simulated approves payments after a fixed delay. Cards failing the Luhn
// check are declined.
type Simulated struct {
	sched     usecase.Scheduler
	cardDelay time.Duration
	pixDelay  time.Duration
	logger    *zap.Logger
}

func NewSimulated(sched usecase.Scheduler, cardDelay, pixDelay time.Duration, logger *zap.Logger) *Simulated {
	if sched == nil {
		sched = usecase.RealScheduler{}
	}
	if cardDelay <= 0 {
		cardDelay = DefaultCardDelay
	}
	if pixDelay <= 0 {
		pixDelay = DefaultPixDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulated{sched: sched, cardDelay: cardDelay, pixDelay: pixDelay, logger: logger}
}

func (s *Simulated) ChargeCard(card usecase.Card, amountCents int, done func(usecase.PaymentOutcome)) func() {
	outcome := usecase.PaymentOutcome{Approved: true}
	if !usecase.LuhnValid(card.Normalized().Number) {
		outcome = usecase.PaymentOutcome{Reason: DeclinedCardReason}
	}
	s.logger.Debug("card charge started", zap.Int("amount_cents", amountCents), zap.Bool("approved", outcome.Approved))
	t := s.sched.AfterFunc(s.cardDelay, func() { done(outcome) })
	return func() { t.Stop() }
}

func (s *Simulated) StartPix(amountCents int, done func(usecase.PaymentOutcome)) (string, func()) {
	s.logger.Debug("pix charge started", zap.Int("amount_cents", amountCents))
	t := s.sched.AfterFunc(s.pixDelay, func() { done(usecase.PaymentOutcome{Approved: true}) })
	return PixPayload, func() { t.Stop() }
}
