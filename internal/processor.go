package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	paymentsPath = "/payments"
	healthPath   = "/payments/service-health"
)

type PaymentProcessor struct {
	Id       ProcessorId
	Endpoint string
	// Timeout caps a single payment attempt.
	Timeout time.Duration
	Client  *http.Client
}

func NewPaymentProcessor(id ProcessorId, endpoint string, timeout time.Duration, client *http.Client) *PaymentProcessor {
	if client == nil {
		client = http.DefaultClient
	}
	return &PaymentProcessor{
		Id:       id,
		Endpoint: endpoint,
		Timeout:  timeout,
		Client:   client,
	}
}

// NewProcessorClient is the http client shared by both processors.
func NewProcessorClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 50,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}

type paymentRequest struct {
	CorrelationId uuid.UUID       `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   string          `json:"requestedAt"`
}

var requestPool = sync.Pool{
	New: func() interface{} {
		return new(paymentRequest)
	},
}

// Process submits the payment. Any non 2xx answer, transport error or
// timeout is a failure.
func (p *PaymentProcessor) Process(ctx context.Context, pp ProcessedPayment) error {
	req := requestPool.Get().(*paymentRequest)
	req.CorrelationId = pp.CorrelationId
	req.Amount = pp.Amount
	req.RequestedAt = pp.RequestedAt.UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(req)
	requestPool.Put(req)
	if err != nil {
		return err
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+paymentsPath, bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s payment %s", ErrTimeout, p.Id.Name(), pp.CorrelationId)
		}
		return fmt.Errorf("%w: %s: %s", ErrProcessorFailed, p.Id.Name(), err)
	}
	defer func(Body io.ReadCloser) {
		_, _ = io.Copy(io.Discard, Body)
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s answered %d", ErrProcessorFailed, p.Id.Name(), resp.StatusCode)
	}

	return nil
}

func (p *PaymentProcessor) HealthStatus(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint+healthPath, nil)
	if err != nil {
		return hs, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return hs, fmt.Errorf("error fetching service health of %s: %w", p.Id.Name(), err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return hs, fmt.Errorf("received %d health response from %s", resp.StatusCode, p.Id.Name())
	}

	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return hs, fmt.Errorf("error decoding service health response: %w", err)
	}
	return hs, nil
}
