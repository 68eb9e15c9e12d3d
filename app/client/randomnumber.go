package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/factory"
)

const defaultRandomNumberTimeout = 10 * time.Second

// RandomNumberClient calls the external random-number API that decides
// payment outcomes. Every failure mode (timeout, transport error, non-2xx,
// malformed body) collapses into "no number".
type RandomNumberClient struct {
	httpClient *http.Client
	url        string
	logger     logrus.FieldLogger
}

func NewRandomNumberClient(url string, timeout time.Duration) *RandomNumberClient {
	if timeout <= 0 {
		timeout = defaultRandomNumberTimeout
	}

	return &RandomNumberClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     factory.NewModuleLogger("random-number-client"),
	}
}

type randomNumberResponse struct {
	Random *int `json:"random"`
}

// FetchNumber returns the upstream number and true, or false when no
// definitive number could be obtained.
func (c *RandomNumberClient) FetchNumber(ctx context.Context) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to build random number request")
		return 0, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Random number API call failed")
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithField("status", resp.StatusCode).Warn("Random number API returned error status")
		return 0, false
	}

	var body []randomNumberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.WithError(err).Warn("Random number API returned malformed body")
		return 0, false
	}
	if len(body) == 0 || body[0].Random == nil {
		c.logger.Warn("Random number API returned empty response")
		return 0, false
	}

	return *body[0].Random, true
}
