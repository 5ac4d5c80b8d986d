package internal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentProcessor_Process_SendsPayload(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, paymentsPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	id := uuid.MustParse("4a7901b8-7d26-4d9d-aa19-4dc1c7cf60b3")
	requestedAt := time.Date(2025, 7, 15, 12, 34, 56, 0, time.UTC)
	p := NewPaymentProcessor(Default, srv.URL, time.Second, nil)

	err := p.Process(context.Background(), ProcessedPayment{
		CorrelationId: id,
		Amount:        decimal.RequireFromString("19.90"),
		RequestedAt:   requestedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, id.String(), body["correlationId"])
	assert.EqualValues(t, 19.9, body["amount"])
	assert.Equal(t, "2025-07-15T12:34:56Z", body["requestedAt"])
}

func TestPaymentProcessor_Process_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: ErrProcessorFailed,
		},
		{
			name: "unprocessable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
			wantErr: ErrProcessorFailed,
		},
		{
			name: "too slow",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			p := NewPaymentProcessor(Fallback, srv.URL, 50*time.Millisecond, nil)

			err := p.Process(context.Background(), ProcessedPayment{CorrelationId: uuid.New(), Amount: decimal.NewFromInt(1)})

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPaymentProcessor_Process_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewPaymentProcessor(Default, url, DefaultAttemptTimeout, nil)
	err := p.Process(context.Background(), ProcessedPayment{CorrelationId: uuid.New(), Amount: decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, ErrProcessorFailed)
}

func TestPaymentProcessor_HealthStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, healthPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"failing":true,"minResponseTime":120}`))
	}))
	defer srv.Close()

	p := NewPaymentProcessor(Default, srv.URL, DefaultAttemptTimeout, nil)
	hs, err := p.HealthStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, HealthStatus{Failing: true, MinResponseTime: 120}, hs)
}

func TestPaymentProcessor_HealthStatus_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPaymentProcessor(Default, srv.URL, DefaultAttemptTimeout, nil)
	_, err := p.HealthStatus(context.Background())

	assert.Error(t, err)
}
