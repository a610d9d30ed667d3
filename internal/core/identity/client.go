package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Pudd11ng/wallet/internal/core/logger"
)

var (
	// ErrUserNotFound is returned when the identity service knows no such user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnavailable is returned for any transport or server-side failure.
	ErrUnavailable = errors.New("identity service unavailable")
)

// Resolver looks up the display name for an authenticated caller id. The
// identity service is an external collaborator; everything behind this
// interface is out of the ledger's hands.
type Resolver interface {
	FetchDisplayName(ctx context.Context, userID string) (string, error)
}

// HTTPClient resolves display names against the auth service's user
// endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type userResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (c *HTTPClient) FetchDisplayName(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build identity request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("Identity lookup failed",
			logger.StringField("user_id", userID),
			logger.ErrorField("error", err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	case resp.StatusCode != http.StatusOK:
		c.log.Error("Identity lookup returned unexpected status",
			logger.StringField("user_id", userID),
			logger.IntField("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return user.Username, nil
}
