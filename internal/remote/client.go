package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	HeaderClientIP = "myip"

	DefaultLoginTimeout = 5 * time.Second
)

// Client talks to the platform API. Every call is a single attempt.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	LoginTimeout time.Duration
	Logger       *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, loginTimeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   &http.Client{Timeout: timeout},
		LoginTimeout: loginTimeout,
		Logger:       logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Code     string `json:"2fa_code"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login submits credentials and decodes the three possible answers.
func (c *Client) Login(ctx context.Context, email string, password string, clientIP *string) (LoginOutcome, error) {
	timeout := c.LoginTimeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var response loginResponse
	request := call{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     loginRequest{Email: email, Password: password},
		clientIP: clientIP,
	}
	if err := c.do(ctx, request, &response); err != nil {
		return nil, err
	}
	outcome, ok := response.outcome()
	if !ok {
		return nil, fmt.Errorf("%w: login answered without token or known msg", ErrUnexpectedResponse)
	}
	return outcome, nil
}

// VerifyTwoFactor resubmits the credentials together with the 2FA code.
func (c *Client) VerifyTwoFactor(ctx context.Context, code string, email string, password string) (Token, error) {
	var response loginResponse
	request := call{
		method: http.MethodPost,
		path:   "/auth/2fa/verify",
		body:   verifyRequest{Code: code, Email: email, Password: password},
	}
	if err := c.do(ctx, request, &response); err != nil {
		return Token{}, err
	}
	if response.AccessToken == "" {
		message := response.Message
		if message == "" {
			message = response.Msg
		}
		return Token{}, &APIError{StatusCode: http.StatusOK, Message: message}
	}
	return response.token(), nil
}

func (c *Client) Logout(ctx context.Context, token Token, clientIP *string) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/logout",
		token:    &token,
		clientIP: clientIP,
	}, nil)
}

func (c *Client) Dashboard(ctx context.Context, token Token) (*DashboardMetrics, error) {
	var metrics DashboardMetrics
	if err := c.do(ctx, call{method: http.MethodGet, path: "/dashboard", token: &token}, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// List fetches one page of a paginated resource such as users or orders.
func (c *Client) List(ctx context.Context, token Token, resource string, params url.Values) (*Page, error) {
	var page Page
	request := call{
		method: http.MethodGet,
		path:   "/" + strings.Trim(resource, "/"),
		query:  params,
		token:  &token,
	}
	if err := c.do(ctx, request, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	token    *Token
	clientIP *string
}

func (c *Client) do(ctx context.Context, request call, target any) error {
	endpoint := c.BaseURL + request.path
	if len(request.query) > 0 {
		endpoint += "?" + request.query.Encode()
	}

	var body io.Reader
	if request.body != nil {
		data, err := json.Marshal(request.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpRequest.Header.Set("Accept", "application/json")
	if body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if request.token != nil {
		httpRequest.Header.Set("Authorization", request.token.Authorization())
	}
	if request.clientIP != nil {
		httpRequest.Header.Set(HeaderClientIP, *request.clientIP)
	}

	start := time.Now()
	response, err := c.HTTPClient.Do(httpRequest)
	entry := c.Logger.WithFields(logrus.Fields{
		"method":   request.method,
		"path":     request.path,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("platform request failed")
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	entry.WithField("status", response.StatusCode).Debug("platform request")

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decodeAPIError(response.StatusCode, payload)
	}
	if target == nil || len(bytes.TrimSpace(payload)) == 0 {
		if target != nil {
			return fmt.Errorf("%w: empty body", ErrUnexpectedResponse)
		}
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func decodeAPIError(status int, payload []byte) error {
	apiErr := &APIError{StatusCode: status}
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		apiErr.Message = body.message()
		apiErr.FieldErrors = body.fieldErrors()
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// IsTimeout reports whether err came from an exceeded deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
