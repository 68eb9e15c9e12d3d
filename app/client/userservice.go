package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/factory"
)

var ErrUserNotFound = errors.New("user not found")

const defaultUserServiceTimeout = 10 * time.Second

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"`
	Email     string `json:"email"`
}

// UserServiceClient resolves user identities in the user service.
type UserServiceClient struct {
	httpClient *http.Client
	baseURL    string
	logger     logrus.FieldLogger
}

func NewUserServiceClient(baseURL string, timeout time.Duration) *UserServiceClient {
	if timeout <= 0 {
		timeout = defaultUserServiceTimeout
	}

	return &UserServiceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     factory.NewModuleLogger("user-service-client"),
	}
}

// GetUserByEmail looks up the stable user record behind an email address,
// forwarding the caller's bearer token. An unknown email surfaces as
// ErrUserNotFound.
func (c *UserServiceClient) GetUserByEmail(ctx context.Context, email, authToken string) (*User, error) {
	lookupURL := fmt.Sprintf("%s/api/v1/users/email?email=%s", c.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, err
	}
	if header := buildAuthorizationHeader(authToken); header != "" {
		req.Header.Set("Authorization", header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service call failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("user service returned malformed body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User resolved")
	return &user, nil
}
