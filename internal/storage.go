package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Storage is the append-only sink of processed payments.
type Storage interface {
	Save(ctx context.Context, pp ProcessedPayment) error
	// GetSummary aggregates payments with from <= requestedAt <= to. A nil
	// bound leaves that side open.
	GetSummary(ctx context.Context, from, to *time.Time) (Summary, error)
	CleanUp(ctx context.Context) error
}

type socketStorage struct {
	client     *http.Client
	socketPath string
}

// NewSocketStorage talks to the storage daemon listening on socketPath.
func NewSocketStorage(socketPath string) Storage {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   5 * time.Second,
	}
	return &socketStorage{
		client:     client,
		socketPath: socketPath,
	}
}

// the host is ignored by the unix dialer but required to build requests
const (
	paymentsUrl = "http://unix/payments"
	summaryUrl  = "http://unix/summary"
	cleanUpUrl  = "http://unix/clean-up"
)

func (s *socketStorage) Save(ctx context.Context, pp ProcessedPayment) error {
	body, err := json.Marshal(pp)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, paymentsUrl, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("save error: %s", data)
	}
	return nil
}

func (s *socketStorage) GetSummary(ctx context.Context, from, to *time.Time) (Summary, error) {
	query := url.Values{}
	if from != nil {
		query.Set("from", formatTimeOrEmpty(from))
	}
	if to != nil {
		query.Set("to", formatTimeOrEmpty(to))
	}
	builder := strings.Builder{}
	builder.WriteString(summaryUrl)
	if len(query) > 0 {
		builder.WriteString("?")
		builder.WriteString(query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, builder.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summary failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("summary error: %s", data)
	}

	summary := NewSummary()
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("invalid summary response: %w", err)
	}
	return summary, nil
}

func (s *socketStorage) CleanUp(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cleanUpUrl, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("clean up failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clean up error: %s", data)
	}
	return nil
}
