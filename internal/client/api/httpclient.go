package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/bdocctl/internal/client/models"
)

// SessionCookieName is the cookie the user service sets after a successful
// OAuth callback. The browser carries it implicitly; this client persists it
// through the session store instead.
const SessionCookieName = "access_token"

// ssoProviders maps provider names to the path segment of the backend's
// login redirect endpoint.
var ssoProviders = map[string]string{
	"google":  "google",
	"github":  "github",
	"outlook": "outlook",
}

// HTTPClient talks JSON over HTTP to the two backend services: the user
// service (auth) and the generator service. A shared cookie jar carries the
// backend's session cookie to both.
type HTTPClient struct {
	userBaseURL      *url.URL
	generatorBaseURL *url.URL
	httpClient       *http.Client
}

// NewHTTPClient builds an HTTPClient for the given service base URLs.
// timeout caps every individual HTTP call; zero means no cap.
func NewHTTPClient(userBaseURL, generatorBaseURL string, timeout time.Duration) (*HTTPClient, error) {
	ub, err := url.Parse(userBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid user service url: %w", err)
	}
	gb, err := url.Parse(generatorBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid generator service url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		userBaseURL:      ub,
		generatorBaseURL: gb,
		httpClient:       &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method string, u *url.URL, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// readErrorMessage pulls a human-readable message out of an error body.
// The backends are not consistent about the field name.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Detail
}

func (c *HTTPClient) ExchangeCallback(ctx context.Context, code, state string) (*AuthPayload, error) {
	body := map[string]string{"code": code, "state": state}
	var payload AuthPayload
	if err := c.doJSON(ctx, http.MethodPost, c.userBaseURL.JoinPath("auth", "callback"), body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *HTTPClient) Status(ctx context.Context) (*AuthPayload, error) {
	var payload AuthPayload
	if err := c.doJSON(ctx, http.MethodGet, c.userBaseURL.JoinPath("auth", "status"), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, c.userBaseURL.JoinPath("auth", "logout"), nil, nil)
}

func (c *HTTPClient) Generate(ctx context.Context, req models.GenerationRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, c.generatorBaseURL.JoinPath("prompt", "sql"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) TaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	var resp TaskStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.generatorBaseURL.JoinPath("task", taskID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Domains(ctx context.Context) ([]string, error) {
	var resp struct {
		Names []string `json:"names"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.generatorBaseURL.JoinPath("business", "names"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// LoginURL maps a provider name to the backend's SSO entry URL. Navigating
// there is the caller's job; no local state changes here.
func (c *HTTPClient) LoginURL(provider string) (string, error) {
	tag, ok := ssoProviders[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return c.userBaseURL.JoinPath("login", tag).String(), nil
}

// SessionCookie returns the current session cookie value, or "" when the
// jar holds none.
func (c *HTTPClient) SessionCookie() string {
	for _, ck := range c.httpClient.Jar.Cookies(c.userBaseURL) {
		if ck.Name == SessionCookieName {
			return ck.Value
		}
	}
	return ""
}

// SetSessionCookie seeds the jar with a previously persisted session cookie
// for both backend services. An empty value is ignored.
func (c *HTTPClient) SetSessionCookie(value string) {
	if value == "" {
		return
	}
	for _, base := range []*url.URL{c.userBaseURL, c.generatorBaseURL} {
		c.httpClient.Jar.SetCookies(base, []*http.Cookie{{Name: SessionCookieName, Value: value, Path: "/"}})
	}
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
