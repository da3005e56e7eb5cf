package convertkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elevatehq/elevate-api/internal/config"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client defines the marketing-automation operations the billing pipeline
// consumes. Callers treat every method as best-effort: failures are logged
// by the caller and never block webhook processing.
type Client interface {
	// TagSubscriber applies a tag to the subscriber with the given email.
	TagSubscriber(ctx context.Context, tagID string, email string) error

	// ListSequences returns all email sequences in the account.
	ListSequences(ctx context.Context) ([]Sequence, error)

	// CancelPendingEmails cancels all pending sends for the subscriber in the
	// given sequence and returns how many were cancelled.
	CancelPendingEmails(ctx context.Context, email string, sequenceID int64) (int, error)
}

type client struct {
	baseURL    string
	apiSecret  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a ConvertKit API client. The HTTP client is deliberately
// single-attempt: webhook-level redelivery is the only retry mechanism in the
// pipeline, so a failed marketing call is logged and dropped rather than
// retried inline.
func NewClient(cfg *config.Configuration, log *logger.Logger) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = log.GetRetryableHTTPLogger()

	rps := cfg.ConvertKit.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &client{
		baseURL:    cfg.ConvertKit.BaseURL,
		apiSecret:  cfg.ConvertKit.APISecret,
		httpClient: rc.StandardClient(),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     log,
	}
}

func (c *client) TagSubscriber(ctx context.Context, tagID string, email string) error {
	if tagID == "" || email == "" {
		return ierr.NewError("tag id and email are required").
			Mark(ierr.ErrValidation)
	}

	body := tagSubscribeRequest{APISecret: c.apiSecret, Email: email}
	var ignored struct{}
	err := c.post(ctx, fmt.Sprintf("/v3/tags/%s/subscribe", tagID), body, &ignored)
	if err != nil {
		return err
	}

	c.logger.Infow("tagged subscriber", "tag_id", tagID)
	return nil
}

func (c *client) ListSequences(ctx context.Context) ([]Sequence, error) {
	var out listSequencesResponse
	if err := c.get(ctx, "/v3/sequences", &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

func (c *client) CancelPendingEmails(ctx context.Context, email string, sequenceID int64) (int, error) {
	if email == "" {
		return 0, ierr.NewError("email is required").
			Mark(ierr.ErrValidation)
	}

	body := cancelPendingRequest{APISecret: c.apiSecret, Email: email}
	var out cancelPendingResponse
	err := c.post(ctx, fmt.Sprintf("/v3/sequences/%d/cancellations", sequenceID), body, &out)
	if err != nil {
		return 0, err
	}
	return out.Cancelled, nil
}

func (c *client) get(ctx context.Context, path string, out interface{}) error {
	url := fmt.Sprintf("%s%s?api_secret=%s", c.baseURL, path, c.apiSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	return c.do(req, out)
}

func (c *client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Unable to reach ConvertKit API").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read ConvertKit response").
			Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return ierr.NewError(errResp.Error).
				WithHint(errResp.Message).
				WithReportableDetails(map[string]interface{}{
					"status": resp.StatusCode,
				}).
				Mark(ierr.ErrHTTPClient)
		}
		return ierr.NewErrorf("ConvertKit API error: HTTP %d", resp.StatusCode).
			Mark(ierr.ErrHTTPClient)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to parse ConvertKit response").
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
