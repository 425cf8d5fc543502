package funding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/state"
	"github.com/fieldline/paydesk/internal/timer"
	"github.com/fieldline/paydesk/internal/validate"
)

// Step is the stage of a funding flow. Transitions only move forward
// except for payment -> method (changing currency) and the terminal
// states, which accept nothing.
type Step string

const (
	StepAmount    Step = "amount"
	StepMethod    Step = "method"
	StepPayment   Step = "payment"
	StepCompleted Step = "completed"
	StepExpired   Step = "expired"
	StepClosed    Step = "closed"
)

// Terminal reports whether the step accepts no further transitions.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepExpired || s == StepClosed
}

// Flow is one funding attempt: collect an amount, quote it, pick a
// currency, then watch the payment window until settlement or expiry.
// All mutation goes through the flow's own methods under its lock; the
// background watcher started at the payment step reports back through
// markCompleted/markExpired.
type Flow struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	step        Step
	details     *models.PaymentDetails
	countdown   timer.Countdown
	nudgeActive bool

	client  *backend.Client
	mgr     *state.Manager
	timers  *timer.Store
	network string

	cancelWatch context.CancelFunc
}

// Status is a point-in-time snapshot of a flow, safe to serialize.
type Status struct {
	ID          string                 `json:"id"`
	Step        Step                   `json:"step"`
	Details     *models.PaymentDetails `json:"details,omitempty"`
	Countdown   timer.Countdown        `json:"countdown"`
	NudgeActive bool                   `json:"nudgeActive"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func newFlow(client *backend.Client, mgr *state.Manager, timers *timer.Store, network string) *Flow {
	return &Flow{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		step:      StepAmount,
		client:    client,
		mgr:       mgr,
		timers:    timers,
		network:   network,
	}
}

// SubmitAmount validates the requested USD amount, fetches a rate quote,
// and advances the flow to method selection. Local validation failures
// reject before any network traffic and leave the step unchanged.
func (f *Flow) SubmitAmount(ctx context.Context, amount string, agreed bool) error {
	f.mu.Lock()
	if f.step != StepAmount {
		f.mu.Unlock()
		return fmt.Errorf("%w: amount already submitted (step %s)", config.ErrWrongStep, f.step)
	}
	f.mu.Unlock()

	if !agreed {
		return config.ErrAgreementRequired
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not a number", config.ErrAmountBelowMinimum, amount)
	}
	if value.LessThan(decimal.NewFromInt(config.MinFundAmountUSD)) {
		return fmt.Errorf("%w: got $%s, minimum is $%d", config.ErrAmountBelowMinimum, value.StringFixed(2), config.MinFundAmountUSD)
	}

	quote, err := f.client.GetCurrentValue(ctx, value.String())
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepAmount {
		return fmt.Errorf("%w: flow moved to %s while quoting", config.ErrWrongStep, f.step)
	}

	f.details = &models.PaymentDetails{
		OrderID:       quote.OrderID,
		Amount:        value.String(),
		USDAmount:     value.StringFixed(2),
		TimeRemaining: quote.TimeRemaining,
		ExchangeRate:  quote.ExchangeRate,
		BTCAmount:     quote.BTCAmount,
		ETHAmount:     quote.ETHAmount,
		USDTAmount:    quote.USDTAmount,
	}
	f.step = StepMethod

	slog.Info("funding amount accepted",
		"flowId", f.ID,
		"orderId", quote.OrderID,
		"usdAmount", value.StringFixed(2),
	)
	return nil
}

// ChooseMethod commits the order to a currency, obtains and validates the
// receiving address, arms the payment-window timer, and starts the
// background watcher. Re-entering from the payment step (after
// ChangeMethod) re-initializes the same order with the new currency.
func (f *Flow) ChooseMethod(ctx context.Context, method models.PaymentMethod) error {
	if !method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", config.ErrBackendRejected, method)
	}

	f.mu.Lock()
	if f.step != StepMethod {
		f.mu.Unlock()
		return fmt.Errorf("%w: cannot pick method at step %s", config.ErrWrongStep, f.step)
	}
	if f.details == nil || f.details.OrderID == "" {
		f.mu.Unlock()
		return config.ErrQuoteMissing
	}
	if f.details.CoinAmount(method) == "" {
		f.mu.Unlock()
		return fmt.Errorf("%w: no %s quote on order", config.ErrQuoteMissing, method)
	}
	orderID := f.details.OrderID
	amount := f.details.Amount
	f.mu.Unlock()

	data, err := f.client.InitializePayment(ctx, amount, method, orderID)
	if err != nil {
		return err
	}

	address := data.Address
	if address == "" {
		address = f.profileAddress(method)
	}
	if address == "" {
		return fmt.Errorf("%w: no receiving address for %s", config.ErrMalformedPayload, method)
	}
	if err := validate.Address(method, address, f.network); err != nil {
		return err
	}

	endTime, err := f.timers.Set(orderID, config.PaymentWindow)
	if err != nil {
		return fmt.Errorf("arming payment timer: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepMethod {
		return fmt.Errorf("%w: flow moved to %s while initializing", config.ErrWrongStep, f.step)
	}

	f.details.Currency = method
	f.details.Address = address
	if data.ExchangeRate != "" {
		f.details.ExchangeRate = data.ExchangeRate
	}
	f.step = StepPayment
	f.nudgeActive = false

	watchCtx, cancel := context.WithCancel(context.Background())
	f.cancelWatch = cancel
	go f.watchPayment(watchCtx, orderID)

	slog.Info("payment window opened",
		"flowId", f.ID,
		"orderId", orderID,
		"method", method,
		"endTime", endTime,
	)
	return nil
}

// ChangeMethod steps back from the payment screen to currency selection.
// The watcher stops; the order and its quote survive, so the operator can
// immediately re-commit with a different currency. The durable timer is
// left in place and re-armed by the next ChooseMethod.
func (f *Flow) ChangeMethod() error {
	f.mu.Lock()
	if f.step != StepPayment {
		f.mu.Unlock()
		return fmt.Errorf("%w: cannot change method at step %s", config.ErrWrongStep, f.step)
	}
	f.step = StepMethod
	f.nudgeActive = false
	f.stopWatchLocked()
	f.mu.Unlock()

	slog.Info("funding method change requested", "flowId", f.ID)
	return nil
}

// AnswerNudge resolves the "have you made the payment?" prompt. Claiming
// payment closes the flow; settlement is not asserted here. If the coins
// really moved, the reconciliation sweep surfaces the credit. Answering no
// keeps the window open.
func (f *Flow) AnswerNudge(paid bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.nudgeActive {
		return fmt.Errorf("%w: no payment prompt pending", config.ErrWrongStep)
	}
	f.nudgeActive = false

	if !paid {
		slog.Info("operator still waiting to pay", "flowId", f.ID)
		return nil
	}

	f.closeLocked(StepClosed)
	slog.Info("operator reported payment sent, closing flow", "flowId", f.ID)
	return nil
}

// Close abandons the flow from any non-terminal step.
func (f *Flow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step.Terminal() {
		return fmt.Errorf("%w: flow already %s", config.ErrFlowFinished, f.step)
	}

	f.closeLocked(StepClosed)
	slog.Info("funding flow closed", "flowId", f.ID)
	return nil
}

// Status returns a snapshot of the flow.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	var details *models.PaymentDetails
	if f.details != nil {
		copied := *f.details
		details = &copied
	}

	return Status{
		ID:          f.ID,
		Step:        f.step,
		Details:     details,
		Countdown:   f.countdown,
		NudgeActive: f.nudgeActive,
		CreatedAt:   f.CreatedAt,
	}
}

// Step returns the current stage.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// profileAddress falls back to the receiving address pinned on the user
// profile when the payment response carries none.
func (f *Flow) profileAddress(method models.PaymentMethod) string {
	user := f.mgr.User()
	if user == nil {
		return ""
	}
	switch method {
	case models.MethodBTC:
		return user.BTCAddress
	case models.MethodETH:
		return user.ETHAddress
	case models.MethodUSDT:
		return user.USDTAddress
	default:
		return ""
	}
}

// closeLocked moves the flow to a terminal step, stops the watcher, and
// clears the durable timer. Callers hold f.mu.
func (f *Flow) closeLocked(terminal Step) {
	f.step = terminal
	f.nudgeActive = false
	f.stopWatchLocked()

	if f.details != nil && f.details.OrderID != "" {
		if err := f.timers.Clear(f.details.OrderID); err != nil {
			slog.Error("failed to clear payment timer", "orderId", f.details.OrderID, "error", err)
		}
	}
}

// stopWatchLocked cancels the background watcher without waiting for it;
// the goroutine observes ctx and exits on its own. Callers hold f.mu.
func (f *Flow) stopWatchLocked() {
	if f.cancelWatch != nil {
		f.cancelWatch()
		f.cancelWatch = nil
	}
}
