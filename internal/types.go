package internal

import (
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	Default ProcessorId = iota
	Fallback
)

type ProcessorId int
type ProcessorName string

// Name is the key used for the processor in summaries.
func (p ProcessorId) Name() ProcessorName {
	switch p {
	case Default:
		return "default"
	case Fallback:
		return "fallback"
	default:
		return ""
	}
}

// Label is the service value persisted with each payment.
func (p ProcessorId) Label() string {
	switch p {
	case Default:
		return "Default"
	case Fallback:
		return "Fallback"
	default:
		return ""
	}
}

// Other returns the processor that is not p.
func (p ProcessorId) Other() ProcessorId {
	if p == Default {
		return Fallback
	}
	return Default
}

func ProcessorFromLabel(label string) (ProcessorId, bool) {
	switch label {
	case "Default":
		return Default, true
	case "Fallback":
		return Fallback, true
	default:
		return 0, false
	}
}

type HealthStatus struct {
	Failing         bool `json:"failing"`
	MinResponseTime int  `json:"minResponseTime"`
}

type PaymentRequest struct {
	CorrelationId uuid.UUID       `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
}

type ProcessedPayment struct {
	CorrelationId uuid.UUID       `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   time.Time       `json:"requestedAt"`
	Processor     ProcessorId     `json:"processor"`
}

// Request strips the processing data so the payment can be queued again.
func (pp ProcessedPayment) Request() PaymentRequest {
	return PaymentRequest{CorrelationId: pp.CorrelationId, Amount: pp.Amount}
}

func (pp ProcessedPayment) Less(item btree.Item) bool {
	a := pp
	b := item.(ProcessedPayment)
	if a.RequestedAt.Equal(b.RequestedAt) {
		return a.CorrelationId.String() < b.CorrelationId.String()
	}
	return a.RequestedAt.Before(b.RequestedAt)
}

type PaymentSummary struct {
	TotalRequests int64           `json:"totalRequests"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

type Summary map[ProcessorName]PaymentSummary

func NewSummary() Summary {
	return Summary{
		Default.Name():  {TotalAmount: decimal.Zero},
		Fallback.Name(): {TotalAmount: decimal.Zero},
	}
}

func (s Summary) add(p ProcessorId, amount decimal.Decimal) {
	entry := s[p.Name()]
	entry.TotalRequests++
	entry.TotalAmount = entry.TotalAmount.Add(amount)
	s[p.Name()] = entry
}

// ParseTimeOrNil parses an optional RFC3339 bound. An empty string is an
// unbounded side of the range.
func ParseTimeOrNil(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func formatTimeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
