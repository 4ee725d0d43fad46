package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vjranagit/engagesim/pkg/types"
)

// Remote delegates fitting to an external forecasting service (for example
// a Prophet sidecar) that accepts the Forecaster contract as JSON.
type Remote struct {
	url    string
	client *http.Client
}

type remoteRequest struct {
	History      []Observation `json:"history"`
	HorizonHours int           `json:"horizon_hours"`
	Confidence   float64       `json:"confidence"`
}

type remoteResponse struct {
	Forecast []types.ForecastPoint `json:"forecast"`
	Error    string                `json:"error,omitempty"`
}

// NewRemote creates a client for the service at url
func NewRemote(url string, timeout time.Duration) *Remote {
	return &Remote{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FitAndForecast implements Forecaster
func (r *Remote) FitAndForecast(ctx context.Context, history []Observation, horizonHours int, confidence float64) ([]types.ForecastPoint, error) {
	if err := validateRequest(history, horizonHours, confidence); err != nil {
		return nil, err
	}

	body, err := json.Marshal(remoteRequest{
		History:      history,
		HorizonHours: horizonHours,
		Confidence:   confidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast service unreachable: %w", err)
	}
	defer resp.Body.Close()

	var out remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast service returned %d: %s", resp.StatusCode, out.Error)
	}

	return out.Forecast, nil
}
