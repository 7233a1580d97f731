// Package rpc is a small Connect client for the keyhub backends. It speaks
// the unary JSON protocol: one POST per call to /<service>/<method>.
package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Connect error codes used by the keyhub services.
const (
	CodeCanceled         = "canceled"
	CodeUnknown          = "unknown"
	CodeInvalidArgument  = "invalid_argument"
	CodeDeadlineExceeded = "deadline_exceeded"
	CodeNotFound         = "not_found"
	CodeAlreadyExists    = "already_exists"
	CodePermissionDenied = "permission_denied"
	CodeInternal         = "internal"
	CodeUnavailable      = "unavailable"
	CodeUnauthenticated  = "unauthenticated"
)

// SessionCookie is the cookie the app backend reads its session from.
const SessionCookie = "session_id"

// Error is a decoded Connect error envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	// Status is the HTTP status the envelope arrived with.
	Status int `json:"-"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "rpc: " + e.Code
	}
	return fmt.Sprintf("rpc: %s: %s", e.Code, e.Message)
}

// CodeOf returns the Connect code carried by err, or "" when err is not an
// rpc error.
func CodeOf(err error) string {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return ""
}

// IsUnauthenticated reports whether the server rejected the credential.
func IsUnauthenticated(err error) bool {
	return CodeOf(err) == CodeUnauthenticated
}

// IsExpected reports errors caused by the caller's input or credential
// rather than by the backend.
func IsExpected(err error) bool {
	switch CodeOf(err) {
	case CodeUnauthenticated, CodePermissionDenied, CodeInvalidArgument, CodeNotFound, CodeAlreadyExists:
		return true
	default:
		return false
	}
}

// Credential decorates outgoing requests.
type Credential interface {
	Apply(req *http.Request)
}

// Bearer sends an Authorization header.
type Bearer string

func (b Bearer) Apply(req *http.Request) {
	if b != "" {
		req.Header.Set("Authorization", "Bearer "+string(b))
	}
}

// Cookie sends the app session cookie.
type Cookie string

func (c Cookie) Apply(req *http.Request) {
	if c != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: string(c)})
	}
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with Timeout is used.
	HTTPClient *http.Client
	// Timeout bounds each call when HTTPClient is nil.
	Timeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client performs unary Connect calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates config and returns a client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("rpc: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("rpc: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("rpc: BaseURL %q must use http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Call posts request to procedure ("pkg.Service/Method") and decodes the
// reply into response. A nil response discards the body.
func (c *Client) Call(ctx context.Context, procedure string, cred Credential, request, response any) error {
	if request == nil {
		request = struct{}{}
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("rpc: %s: encode request: %w", procedure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+strings.TrimLeft(procedure, "/"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", procedure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connect-Protocol-Version", "1")
	if cred != nil {
		cred.Apply(req)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("rpc: %s: read response: %w", procedure, err)
	}
	c.logger.Debug("rpc call",
		"procedure", procedure,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, body)
	}
	if response == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("rpc: %s: decode response: %w", procedure, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var envelope Error
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Code == "" {
		envelope = Error{Code: codeForStatus(status), Message: strings.TrimSpace(string(body))}
	}
	envelope.Status = status
	return &envelope
}

// codeForStatus follows the Connect HTTP to code mapping for replies that
// carry no envelope, such as proxy errors.
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeInvalidArgument
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeDeadlineExceeded
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return CodeUnavailable
	default:
		return CodeUnknown
	}
}

// Int64 decodes protojson 64-bit integers, which arrive as strings, while
// still accepting plain numbers.
type Int64 int64

func (i Int64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(i), 10))
}

func (i *Int64) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*i = 0
		return nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("rpc: invalid int64 %s", data)
	}
	*i = Int64(parsed)
	return nil
}
