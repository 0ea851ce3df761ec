package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second
)

// Client envuelve *resty.Client con helpers comunes para adapters.
type Client struct {
	R       *resty.Client
	BaseURL string // opcional; si se define, DoJSON puede recibir paths relativos
}

type Options struct {
	BaseURL string
	Timeout time.Duration

	// Reintentos solo ante errores de red / 5xx.
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration

	// Transport permite inyectar un RoundTripper (p.ej. para tests).
	Transport http.RoundTripper
}

// New crea un Client con timeout razonable.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base != "" {
		if _, err := url.ParseRequestURI(base); err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		base = strings.TrimRight(base, "/")
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}
	if opts.RetryCount > 0 {
		rc.SetRetryCount(opts.RetryCount).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
		if opts.RetryWait > 0 {
			rc.SetRetryWaitTime(opts.RetryWait)
		}
		if opts.RetryMaxWait > 0 {
			rc.SetRetryMaxWaitTime(opts.RetryMaxWait)
		}
	}

	return &Client{R: rc, BaseURL: base}, nil
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// DoJSON hace un request JSON.
// - method: GET/POST/etc
// - pathOrURL: puede ser URL absoluta o path relativo si BaseURL está seteado
// - headers: headers extra (opcional)
// - in: body a enviar (opcional). Si nil => no body.
// - out: donde decodificar JSON (opcional). Si nil => ignora body.
// Retorna *HTTPError si status no es 2xx.
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	in any,
	out any,
) error {
	if c == nil || c.R == nil {
		return errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	req := c.R.R().SetContext(ctx)
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.SetHeader(k, v)
	}
	if in != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(in)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, fullURL)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(resp.Body())),
		}
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	// Si ya es URL absoluta, úsala tal cual.
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	// Si no es absoluta, requiere BaseURL.
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}
