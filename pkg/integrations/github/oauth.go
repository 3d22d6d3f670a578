package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
)

// DefaultLoginURL hosts GitHub's OAuth endpoints.
const DefaultLoginURL = "https://github.com/login"

// deviceScopes covers everything enrichment reads.
const deviceScopes = "read:user public_repo"

// minPollInterval is the slowest rate GitHub allows for device polling.
const minPollInterval = 5

var (
	errPending  = errors.New("authorization_pending")
	errSlowDown = errors.New("slow_down")
)

// DeviceCode is GitHub's answer to a device authorization request. The
// user enters UserCode at VerificationURI.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// OAuthToken is an access token issued by the device flow.
type OAuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// DeviceFlow runs GitHub's OAuth device authorization flow for an OAuth
// app. Only the client ID is needed; device flow has no secret.
type DeviceFlow struct {
	clientID   string
	loginURL   string
	httpClient *http.Client
	unit       time.Duration
}

// NewDeviceFlow creates a flow for clientID against loginURL. An empty
// loginURL means [DefaultLoginURL].
func NewDeviceFlow(clientID, loginURL string) *DeviceFlow {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	return &DeviceFlow{
		clientID:   clientID,
		loginURL:   strings.TrimSuffix(loginURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		unit:       time.Second,
	}
}

// RequestCode starts the flow.
func (f *DeviceFlow) RequestCode(ctx context.Context) (*DeviceCode, error) {
	if f.clientID == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "no OAuth client id (set github.client_id or GITHUB_CLIENT_ID)")
	}
	var code DeviceCode
	err := f.post(ctx, "/device/code", url.Values{
		"client_id": {f.clientID},
		"scope":     {deviceScopes},
	}, &code)
	if err != nil {
		return nil, err
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return nil, errs.New(errs.ErrCodeInternal, "device code response is incomplete")
	}
	return &code, nil
}

// PollToken waits until the user approves code and returns the token.
// It stops when ctx is done or GitHub reports the code expired or denied.
func (f *DeviceFlow) PollToken(ctx context.Context, code *DeviceCode) (*OAuthToken, error) {
	interval := max(code.Interval, minPollInterval)
	ticker := time.NewTicker(time.Duration(interval) * f.unit)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		tok, err := f.exchange(ctx, code.DeviceCode)
		switch {
		case errors.Is(err, errPending):
			continue
		case errors.Is(err, errSlowDown):
			interval += minPollInterval
			ticker.Reset(time.Duration(interval) * f.unit)
			continue
		case err != nil:
			return nil, err
		}
		return tok, nil
	}
}

func (f *DeviceFlow) exchange(ctx context.Context, deviceCode string) (*OAuthToken, error) {
	var result struct {
		OAuthToken
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
	}
	err := f.post(ctx, "/oauth/access_token", url.Values{
		"client_id":   {f.clientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}, &result)
	if err != nil {
		return nil, err
	}

	switch result.Error {
	case "":
		if result.AccessToken == "" {
			return nil, errs.New(errs.ErrCodeUnauthorized, "no access token issued")
		}
		return &result.OAuthToken, nil
	case errPending.Error():
		return nil, errPending
	case errSlowDown.Error():
		return nil, errSlowDown
	default:
		return nil, errs.New(errs.ErrCodeUnauthorized, "%s: %s", result.Error, result.ErrorDesc)
	}
}

func (f *DeviceFlow) post(ctx context.Context, path string, form url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.loginURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Wrap(errs.ErrCodeNetwork, err, "POST %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.New(errs.ErrCodeNetwork, "POST %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
