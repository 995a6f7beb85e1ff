package purchase

import (
	"regexp"
	"strings"

	"github.com/aprendecomigo-edu/courier/core"
)

// Step is one state in the purchase flow machine.
type Step string

// Flow steps. Success and error are terminal; only Reset leaves them.
const (
	StepPlanSelection Step = "plan-selection"
	StepUserInfo      Step = "user-info"
	StepPayment       Step = "payment"
	StepSuccess       Step = "success"
	StepError         Step = "error"
)

// Validation messages surfaced through State.FieldErrors.
const (
	msgNameRequired  = "Name is required"
	msgNameTooShort  = "Name must be at least 2 characters"
	msgEmailRequired = "Email is required"
	msgEmailInvalid  = "Please enter a valid email address"
	msgPlanRequired  = "Please select a plan"
)

// State is a snapshot of the flow. FieldErrors maps field names ("name",
// "email", "plan") to user-facing messages; GlobalError carries the
// top-level failure text for the error step and structured API failures.
type State struct {
	Step          Step              `json:"step"`
	SelectedPlan  *core.Plan        `json:"selected_plan,omitempty"`
	StudentName   string            `json:"student_name"`
	StudentEmail  string            `json:"student_email"`
	FieldErrors   map[string]string `json:"field_errors"`
	Processing    bool              `json:"processing"`
	PaymentSecret string            `json:"payment_secret,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	GlobalError   string            `json:"global_error,omitempty"`
}

func newState() State {
	return State{Step: StepPlanSelection, FieldErrors: map[string]string{}}
}

// clone returns a deep copy safe for external use.
func (s State) clone() State {
	out := s
	out.FieldErrors = make(map[string]string, len(s.FieldErrors))
	for k, v := range s.FieldErrors {
		out.FieldErrors[k] = v
	}
	if s.SelectedPlan != nil {
		plan := *s.SelectedPlan
		out.SelectedPlan = &plan
	}
	return out
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// normalizeEmail trims and lower-cases an address before storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateName returns the validation message for a student name, or "".
func validateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return msgNameRequired
	}
	if len([]rune(name)) < 2 {
		return msgNameTooShort
	}
	return ""
}

// validateEmail returns the validation message for a normalized email, or "".
func validateEmail(email string) string {
	if email == "" {
		return msgEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return msgEmailInvalid
	}
	return ""
}
