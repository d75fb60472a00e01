package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// SnapshotFetcher re-reads every identity's latest position from the API. An
// observer calls it after each connect to cover events it missed.
type SnapshotFetcher struct {
	url    string
	token  string
	client *http.Client
}

func NewSnapshotFetcher(baseURL, token string, timeout time.Duration) *SnapshotFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SnapshotFetcher{
		url:    strings.TrimRight(baseURL, "/") + "/locations/all",
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type snapshotUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LatestPosition *struct {
		Coordinates domain.Point `json:"coordinates"`
		Timestamp   time.Time    `json:"timestamp"`
	} `json:"latestPosition"`
}

type snapshotResponse struct {
	Success bool           `json:"success"`
	Users   []snapshotUser `json:"users"`
	Message string         `json:"message"`
}

// Fetch returns one position per identity that has ever reported. The
// endpoint is manager-only, so other credentials get an error.
func (f *SnapshotFetcher) Fetch(ctx context.Context) ([]domain.PositionUpdated, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	var body snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode snapshot (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch snapshot: status %d: %s", resp.StatusCode, body.Message)
	}

	out := make([]domain.PositionUpdated, 0, len(body.Users))
	for _, u := range body.Users {
		if u.LatestPosition == nil {
			continue
		}
		out = append(out, domain.PositionUpdated{
			UserID:      u.ID,
			Name:        u.Name,
			Coordinates: u.LatestPosition.Coordinates,
			Timestamp:   u.LatestPosition.Timestamp,
		})
	}
	return out, nil
}
