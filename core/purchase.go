package core

import "context"

// Plan is a purchasable package offered by the platform.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Hours       int    `json:"hours,omitempty"`
}

// StudentInfo identifies the student a purchase is made for.
type StudentInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PurchaseRequest is the payload sent to the transactional API when a
// purchase is initiated. The controller never sends known-invalid input.
type PurchaseRequest struct {
	PlanID      string      `json:"plan_id"`
	StudentInfo StudentInfo `json:"student_info"`
}

// PurchaseResponse is the transactional API's answer to an initiation.
// Success carries the processor client secret and transaction id; a
// structured validation failure carries per-field errors plus a top-level
// message and leaves Success false.
type PurchaseResponse struct {
	Success       bool                `json:"success"`
	ClientSecret  string              `json:"client_secret,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Message       string              `json:"message,omitempty"`
	FieldErrors   map[string][]string `json:"field_errors,omitempty"`
}

// ProcessorConfig is the payment processor configuration fetched from the
// transactional API (publishable key and friends). Its presence gates the
// payment step's readiness.
type ProcessorConfig struct {
	PublishableKey string `json:"publishable_key"`
	AccountCountry string `json:"account_country,omitempty"`
	Currency       string `json:"currency,omitempty"`
}

// PurchaseAPI is the external transactional collaborator. Courier consumes
// it; it never implements it. Failures are returned as errors and translated
// by the flow controller into terminal error states.
type PurchaseAPI interface {
	InitiatePurchase(ctx context.Context, req PurchaseRequest) (PurchaseResponse, error)
	GetConfig(ctx context.Context) (ProcessorConfig, error)
}

// Payment intent statuses reported by the processor.
const (
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusProcessing = "processing"
)

// PaymentResult is the terminal outcome of a confirmation attempt. Exactly
// one of Status or ErrorMessage is meaningful: a processor-reported error
// carries ErrorMessage, otherwise Status holds the intent status.
type PaymentResult struct {
	Status       string `json:"status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// PaymentProcessor confirms a previously initiated payment against the
// external processor using the client secret obtained at initiation.
type PaymentProcessor interface {
	ConfirmPayment(ctx context.Context, clientSecret, returnURL string) (PaymentResult, error)
}
