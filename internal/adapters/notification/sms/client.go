package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"immunization-scheduler/internal/platform/httpclient"
	"immunization-scheduler/internal/ports/notification"

	"github.com/google/uuid"
)

// IdempotencyHeader viaja igual en cada reintento de un mismo envío; el gateway descarta duplicados.
const IdempotencyHeader = "Idempotency-Key"

var (
	ErrSMSNotConfigured = errors.New("sms gateway not configured")
	ErrSMSUnauthorized  = errors.New("sms gateway unauthorized")
	ErrSMSUpstream      = errors.New("sms gateway upstream error")
)

// Config del gateway SMS.
// BaseURL y APIKey normalmente vienen de env (SMS_BASE_URL / SMS_API_KEY).
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: nombre del header donde se manda la API key.
	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	// Remitente que muestra el operador (alfanumérico o número corto).
	Sender string

	Timeout    time.Duration
	RetryCount int
}

// Client implementa notification.Notifier contra un gateway HTTP genérico:
// POST /v1/messages {to, from, message} -> {id, status, error}
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
	sender       string
}

var _ notification.Notifier = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		RetryCount:   cfg.RetryCount,
		RetryWait:    500 * time.Millisecond,
		RetryMaxWait: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("sms: %w", err)
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		sender:       strings.TrimSpace(cfg.Sender),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued | sent | delivered | failed
	Error  string `json:"error"`
}

func (c *Client) Notify(ctx context.Context, destination, message string) (notification.Delivery, error) {
	if !c.IsConfigured() {
		return notification.Delivery{}, ErrSMSNotConfigured
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return notification.Delivery{}, errors.New("sms: destination required")
	}

	var out sendResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/messages",
		map[string]string{c.apiKeyHeader: c.apiKey, IdempotencyHeader: uuid.NewString()},
		sendRequest{To: destination, From: c.sender, Message: message},
		&out,
	)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return notification.Delivery{ErrorDetail: httpErr.Body}, ErrSMSUnauthorized
			default:
				return notification.Delivery{ErrorDetail: httpErr.Body}, fmt.Errorf("%w: status=%d", ErrSMSUpstream, httpErr.StatusCode)
			}
		}
		return notification.Delivery{ErrorDetail: err.Error()}, fmt.Errorf("%w: %v", ErrSMSUpstream, err)
	}

	// El gateway puede aceptar el request pero rechazar el envío.
	delivered := !strings.EqualFold(out.Status, "failed") && out.Error == ""
	return notification.Delivery{
		Delivered:         delivered,
		ProviderReference: out.ID,
		ErrorDetail:       out.Error,
	}, nil
}
