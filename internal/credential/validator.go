package credential

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// APIValidator issues a single request against the APOD API with the
// candidate key. Transient 429/5xx responses are retried inside this one
// attempt; a definitive rejection or an exhausted retry budget both discard
// the candidate.
type APIValidator struct {
	BaseURL string
	http    *http.Client
}

func NewAPIValidator(baseURL string) *APIValidator {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil // suppress default logging

	return &APIValidator{
		BaseURL: baseURL,
		http:    retryClient.StandardClient(),
	}
}

func (v *APIValidator) Validate(ctx context.Context, secret string) error {
	q := url.Values{}
	q.Set("api_key", secret)
	q.Set("thumbs", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrInvalid, err)
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: API rejected the key (HTTP %d)", ErrInvalid, resp.StatusCode)
	default:
		return fmt.Errorf("%w: unexpected response HTTP %d", ErrInvalid, resp.StatusCode)
	}
}
