package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/config"
)

type noopRegistry struct{}

func (noopRegistry) Lookup(ctx context.Context, nationalID string) (worker.Profile, error) {
	return worker.Profile{}, worker.ErrNotFound
}

type httpRegistry struct {
	baseURL string
	client  *http.Client
}

// New returns the registry client, or a noop that never resolves when
// verification is off or no endpoint is configured.
func New(cfg config.Config) worker.Registry {
	if !cfg.WorkerVerificationOn || cfg.WorkerVerificationURL == "" {
		return noopRegistry{}
	}
	return &httpRegistry{
		baseURL: cfg.WorkerVerificationURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *httpRegistry) Lookup(ctx context.Context, nationalID string) (worker.Profile, error) {
	endpoint := r.baseURL + "/" + url.PathEscape(nationalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return worker.Profile{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return worker.Profile{}, fmt.Errorf("registry lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return worker.Profile{}, worker.ErrNotFound
	default:
		return worker.Profile{}, fmt.Errorf("registry lookup: status %d", resp.StatusCode)
	}

	var profile worker.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return worker.Profile{}, fmt.Errorf("registry lookup: decode: %w", err)
	}
	if profile.NationalID == "" {
		profile.NationalID = nationalID
	}
	return profile, nil
}
