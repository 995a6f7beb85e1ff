package purchase

import (
	"context"
	"sync"
	"time"

	"github.com/aprendecomigo-edu/courier/core"
	"github.com/aprendecomigo-edu/courier/logging"
)

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Logger receives step transitions and API outcomes.
	Logger logging.Logger
}

// Controller drives the purchase flow state machine. All methods are safe
// for concurrent use; State returns an independent snapshot.
type Controller struct {
	api      core.PurchaseAPI
	logger   logging.Logger
	onChange []func(State)

	mu     sync.Mutex
	state  State
	config *core.ProcessorConfig
}

// NewController creates a flow controller backed by the given billing API.
func NewController(api core.PurchaseAPI, optFns ...func(o *ControllerOptions)) *Controller {
	opts := ControllerOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Controller{
		api:    api,
		logger: opts.Logger,
		state:  newState(),
	}
}

// OnStateChange registers a callback fired after every state transition.
// Callbacks receive an independent snapshot and run outside the lock.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// State returns a snapshot of the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// ProcessorConfig returns the payment processor configuration fetched during
// InitiatePurchase, or nil if none has been loaded.
func (c *Controller) ProcessorConfig() *core.ProcessorConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config == nil {
		return nil
	}
	cfg := *c.config
	return &cfg
}

// SelectPlan records the chosen plan and advances to the user-info step,
// clearing the global error and all field errors. Valid only from the
// plan-selection and user-info steps.
func (c *Controller) SelectPlan(plan core.Plan) {
	c.mu.Lock()
	if c.state.Step != StepPlanSelection && c.state.Step != StepUserInfo {
		c.mu.Unlock()
		return
	}
	p := plan
	c.state.SelectedPlan = &p
	c.state.GlobalError = ""
	c.state.FieldErrors = map[string]string{}
	c.transitionLocked(StepUserInfo)
	snapshot, cbs := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)
}

// UpdateStudentInfo stores the student's name and email, revalidating both
// fields. Email addresses are trimmed and lower-cased before storage. Each
// field's error is set or cleared based on its current value, so fixing a
// field removes its message on the next update.
func (c *Controller) UpdateStudentInfo(name, email string) {
	c.mu.Lock()
	c.state.StudentName = name
	c.state.StudentEmail = normalizeEmail(email)
	c.applyFieldError("name", validateName(c.state.StudentName))
	c.applyFieldError("email", validateEmail(c.state.StudentEmail))
	snapshot, cbs := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)
}

// CanProceed reports whether the current step's requirements are satisfied:
// a selected plan for plan-selection, valid student info for user-info, and
// both a payment secret and processor configuration for payment. Terminal
// steps never proceed.
func (c *Controller) CanProceed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Step {
	case StepPlanSelection:
		return c.state.SelectedPlan != nil
	case StepUserInfo:
		return c.state.SelectedPlan != nil &&
			validateName(c.state.StudentName) == "" &&
			validateEmail(c.state.StudentEmail) == ""
	case StepPayment:
		return c.state.PaymentSecret != "" && c.config != nil
	default:
		return false
	}
}

// InitiatePurchase validates the collected data and calls the billing API.
// On success the flow advances to the payment step carrying the client
// secret. Structured field errors from the API keep the flow at user-info;
// transport failures move to the error step. Calls from any step past
// user-info are ignored, so a double submit cannot mint a second
// transaction.
func (c *Controller) InitiatePurchase(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Processing {
		c.mu.Unlock()
		return nil
	}
	if c.state.Step != StepPlanSelection && c.state.Step != StepUserInfo {
		c.mu.Unlock()
		return nil
	}
	if c.state.SelectedPlan == nil {
		c.state.FieldErrors["plan"] = msgPlanRequired
		c.transitionLocked(StepPlanSelection)
		snapshot, cbs := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot, cbs)
		return nil
	}
	if msg := validateName(c.state.StudentName); msg != "" {
		c.state.FieldErrors["name"] = msg
	}
	if msg := validateEmail(c.state.StudentEmail); msg != "" {
		c.state.FieldErrors["email"] = msg
	}
	if len(c.state.FieldErrors) > 0 {
		c.transitionLocked(StepUserInfo)
		snapshot, cbs := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot, cbs)
		return nil
	}

	req := core.PurchaseRequest{
		PlanID: c.state.SelectedPlan.ID,
		StudentInfo: core.StudentInfo{
			Name:  c.state.StudentName,
			Email: c.state.StudentEmail,
		},
	}
	c.state.Processing = true
	snapshot, cbs := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)

	start := time.Now()
	resp, err := c.api.InitiatePurchase(ctx, req)

	c.mu.Lock()
	c.state.Processing = false
	switch {
	case err != nil:
		c.logger.Warn("purchase initiation failed", "error", err, "duration", time.Since(start))
		c.state.GlobalError = err.Error()
		c.transitionLocked(StepError)
	case !resp.Success && len(resp.FieldErrors) > 0:
		for field, msgs := range resp.FieldErrors {
			if len(msgs) > 0 {
				c.state.FieldErrors[field] = msgs[0]
			}
		}
		c.state.GlobalError = resp.Message
		c.transitionLocked(StepUserInfo)
	case !resp.Success:
		c.logger.Warn("purchase rejected", "message", resp.Message)
		c.state.GlobalError = resp.Message
		c.transitionLocked(StepError)
	default:
		c.logger.Info("purchase initiated", "transaction_id", resp.TransactionID, "duration", time.Since(start))
		c.state.PaymentSecret = resp.ClientSecret
		c.state.TransactionID = resp.TransactionID
		c.transitionLocked(StepPayment)
	}
	succeeded := c.state.Step == StepPayment
	snapshot, cbs = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)

	if succeeded {
		c.loadProcessorConfig(ctx)
	}
	return err
}

// loadProcessorConfig fetches the processor configuration on a best-effort
// basis. Failure to load it does not interrupt the flow.
func (c *Controller) loadProcessorConfig(ctx context.Context) {
	cfg, err := c.api.GetConfig(ctx)
	if err != nil {
		c.logger.Warn("processor config unavailable", "error", err)
		return
	}
	c.mu.Lock()
	c.config = &cfg
	c.mu.Unlock()
}

// ConfirmPayment hands the client secret to the payment processor and
// resolves the flow. A succeeded result reaches the success step. A result
// still processing is treated as incomplete and returns
// ErrPaymentIncomplete with a distinct user-facing message; calling without
// an initiated payment returns ErrNoPaymentInProgress instead.
func (c *Controller) ConfirmPayment(ctx context.Context, processor core.PaymentProcessor, returnURL string) error {
	c.mu.Lock()
	if c.state.Step != StepPayment || c.state.PaymentSecret == "" {
		c.state.GlobalError = "No payment in progress"
		c.transitionLocked(StepError)
		snapshot, cbs := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot, cbs)
		return ErrNoPaymentInProgress
	}
	secret := c.state.PaymentSecret
	c.state.Processing = true
	snapshot, cbs := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)

	start := time.Now()
	result, err := processor.ConfirmPayment(ctx, secret, returnURL)

	c.mu.Lock()
	c.state.Processing = false
	var outErr error
	switch {
	case err != nil:
		c.logger.Warn("payment confirmation failed", "error", err, "duration", time.Since(start))
		c.state.GlobalError = err.Error()
		c.transitionLocked(StepError)
		outErr = err
	case result.ErrorMessage != "":
		c.logger.Warn("payment declined", "message", result.ErrorMessage)
		c.state.GlobalError = result.ErrorMessage
		c.transitionLocked(StepError)
	case result.Status == core.PaymentStatusSucceeded:
		c.logger.Info("payment succeeded", "transaction_id", c.state.TransactionID, "duration", time.Since(start))
		c.transitionLocked(StepSuccess)
	default:
		c.logger.Warn("payment incomplete", "status", result.Status)
		c.state.GlobalError = "Payment is still processing. Please check back shortly."
		c.transitionLocked(StepError)
		outErr = ErrPaymentIncomplete
	}
	snapshot, cbs = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)
	return outErr
}

// SetError moves the flow to the error step with the given message,
// clearing any in-flight processing flag.
func (c *Controller) SetError(message string) {
	c.mu.Lock()
	c.state.Processing = false
	c.state.GlobalError = message
	c.transitionLocked(StepError)
	snapshot, cbs := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)
}

// Reset clears all collected data and returns to the plan-selection step.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = newState()
	c.config = nil
	snapshot, cbs := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot, cbs)
}

func (c *Controller) applyFieldError(field, msg string) {
	if msg == "" {
		delete(c.state.FieldErrors, field)
		return
	}
	c.state.FieldErrors[field] = msg
}

func (c *Controller) transitionLocked(to Step) {
	if c.state.Step == to {
		return
	}
	c.logger.Debug("purchase step change", "from", string(c.state.Step), "to", string(to))
	c.state.Step = to
}

func (c *Controller) snapshotLocked() (State, []func(State)) {
	cbs := make([]func(State), len(c.onChange))
	copy(cbs, c.onChange)
	return c.state.clone(), cbs
}

func (c *Controller) notify(s State, cbs []func(State)) {
	for _, fn := range cbs {
		fn(s)
	}
}
