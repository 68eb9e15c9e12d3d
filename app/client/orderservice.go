package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/factory"
)

var ErrOrderNotFound = errors.New("order not found")

const defaultOrderServiceTimeout = 10 * time.Second

// OrderServiceClient updates order lifecycle statuses in the order service.
type OrderServiceClient struct {
	httpClient *http.Client
	baseURL    string
	logger     logrus.FieldLogger
}

func NewOrderServiceClient(baseURL string, timeout time.Duration) *OrderServiceClient {
	if timeout <= 0 {
		timeout = defaultOrderServiceTimeout
	}

	return &OrderServiceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     factory.NewModuleLogger("order-service-client"),
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus sets the remote order's status, forwarding the caller's
// bearer token. A missing order surfaces as ErrOrderNotFound.
func (c *OrderServiceClient) UpdateOrderStatus(ctx context.Context, orderID, status, authToken string) error {
	payload, err := json.Marshal(updateOrderStatusRequest{Status: status})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/orders/%s", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if header := buildAuthorizationHeader(authToken); header != "" {
		req.Header.Set("Authorization", header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order service call failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("order service returned status %d for order %s", resp.StatusCode, orderID)
	}

	c.logger.WithFields(logrus.Fields{"order_id": orderID, "status": status}).Info("Order status updated")
	return nil
}

func buildAuthorizationHeader(authToken string) string {
	authToken = strings.TrimSpace(authToken)
	if authToken == "" {
		return ""
	}
	if strings.HasPrefix(authToken, "Bearer") {
		return authToken
	}
	return "Bearer " + authToken
}
