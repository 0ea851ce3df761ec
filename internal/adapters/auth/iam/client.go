package iam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"immunization-scheduler/internal/platform/httpclient"
	"immunization-scheduler/internal/ports/auth"
)

var (
	ErrIAMNotConfigured = errors.New("iam client not configured")
	ErrIAMUnauthorized  = errors.New("iam unauthorized")
	ErrIAMUpstream      = errors.New("iam upstream error")
)

// Config del cliente IAM que valida tokens del personal.
// BaseURL y APIKey vienen de env (AUTH_BASE_URL / AUTH_API_KEY).
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{BaseURL: cfg.BaseURL, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("iam: %w", err)
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	FacilityID string `json:"facility_id"`
}

// VerifyToken: POST /v1/tokens/verify {token} -> {user_id, name, email, facility_id}
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrIAMNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrIAMUnauthorized
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify",
		map[string]string{
			c.apiKeyHeader:  c.apiKey,
			"Authorization": "Bearer " + token,
		},
		verifyRequest{Token: token},
		&out,
	)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return auth.Claims{}, ErrIAMUnauthorized
			default:
				return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrIAMUpstream, httpErr.StatusCode)
			}
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrIAMUpstream, err)
	}

	return auth.Claims{
		UserID:     strings.TrimSpace(out.UserID),
		Name:       strings.TrimSpace(out.Name),
		Email:      strings.TrimSpace(out.Email),
		FacilityID: strings.TrimSpace(out.FacilityID),
	}, nil
}
