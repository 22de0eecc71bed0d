// Package apiclient talks to the upstream food-ordering REST API: restaurants,
// dish catalogs, the persisted cart, order creation and voucher validation.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotFound matches any *Error carrying a 404.
var ErrNotFound = errors.New("apiclient: not found")

// Error is returned for every upstream response with status >= 400.
// Body is the raw response text so validation messages reach callers verbatim.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// Client is safe for concurrent use. Copies made with WithToken share the
// underlying connection pool but carry their own bearer token.
type Client struct {
	rc  *resty.Client
	log logrus.FieldLogger

	mu    sync.RWMutex
	token string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get("X-Request-ID") == "" {
			r.SetHeader("X-Request-ID", uuid.NewString())
		}
		return nil
	})

	return &Client{rc: rc, log: log.WithField("component", "apiclient")}
}

// WithToken returns a client that forwards token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	return &Client{rc: c.rc, log: c.log, token: token}
}

// SetToken replaces the forwarded bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.rc.R().SetContext(ctx)
	c.mu.RLock()
	if c.token != "" {
		r.SetAuthToken(c.token)
	}
	c.mu.RUnlock()
	return r
}

// do executes the request and decodes a successful body into out (if non-nil).
func (c *Client) do(r *resty.Request, method, path string, out any) error {
	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() >= 400 {
		apiErr := &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(resp.Body())),
		}
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode(),
		}).Debug("upstream error response")
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := decode(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// decode accepts either a bare JSON document or one wrapped as {"data": ...}.
func decode(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if body[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			body = env.Data
		}
	}
	return json.Unmarshal(body, out)
}
