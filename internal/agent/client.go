package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// Sample is the ingestion request body sent to POST /locations.
type Sample struct {
	// Coordinates is [longitude, latitude].
	Coordinates   [2]float64             `json:"coordinates"`
	UserID        string                 `json:"userId,omitempty"`
	Accuracy      *float64               `json:"accuracy,omitempty"`
	Altitude      *float64               `json:"altitude,omitempty"`
	Speed         *float64               `json:"speed,omitempty"`
	BatteryLevel  *int                   `json:"batteryLevel,omitempty"`
	ActivityType  string                 `json:"activityType,omitempty"`
	Metadata      *domain.DeviceMetadata `json:"metadata,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	StoredOffline bool                   `json:"storedOffline,omitempty"`
	StoredAt      *time.Time             `json:"storedAt,omitempty"`
}

// Sender delivers one sample to the ingestion endpoint.
type Sender interface {
	Send(ctx context.Context, s Sample) error
}

// HTTPSender posts samples with a bearer credential.
type HTTPSender struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPSender(endpoint, token string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		url:    strings.TrimRight(endpoint, "/") + "/locations",
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Send returns an error wrapping domain.ErrDelivery for transport failures
// and every non-2xx answer. A 200 for an already stored replay is success.
func (s *HTTPSender) Send(ctx context.Context, sample Sample) error {
	body, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", domain.ErrDelivery, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
