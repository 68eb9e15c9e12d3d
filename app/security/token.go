package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidToken = errors.New("invalid bearer token")

// EmailFromAuthorization extracts the email carried in the "sub" claim of a
// bearer JWT. The token is issued and verified by the authentication
// service upstream; this service only reads claims and forwards the raw
// header to downstream services.
func EmailFromAuthorization(authHeader string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(authHeader), "Bearer"))
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrInvalidToken)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: malformed token", ErrInvalidToken)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: undecodable claims", ErrInvalidToken)
	}

	var claims struct {
		Subject string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("%w: unparsable claims", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: sub claim is missing", ErrInvalidToken)
	}

	return claims.Subject, nil
}
