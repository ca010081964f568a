package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultDeviceCodeURL = "https://github.com/login/device/code"
	defaultOAuthTokenURL = "https://github.com/login/oauth/access_token"

	// copilotClientID is the OAuth app ID shared by the official Copilot
	// editor integrations.
	copilotClientID = "Iv1.b507a08c87ecfe98"
)

// Device-flow terminal errors.
var (
	// ErrAccessDenied is returned when the user declined the sign-in.
	ErrAccessDenied = errors.New("sign-in was denied")
	// ErrDeviceCodeExpired is returned when the user code expired before
	// the sign-in completed.
	ErrDeviceCodeExpired = errors.New("device code expired before sign-in completed")
)

// DeviceCode is the server's answer to a device-flow start: the code the
// user must enter at VerificationURI, and how to poll for the result.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// RequestDeviceCode begins a GitHub device-flow sign-in and returns the
// code the user must confirm in a browser.
func (c *Client) RequestDeviceCode(ctx context.Context) (DeviceCode, error) {
	form := url.Values{
		"client_id": {copilotClientID},
		"scope":     {"read:user"},
	}

	var code DeviceCode
	if err := c.postForm(ctx, c.deviceCodeURL, form, &code); err != nil {
		return DeviceCode{}, fmt.Errorf("device code request failed: %w", err)
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return DeviceCode{}, errors.New("device code response missing codes")
	}
	if code.Interval <= 0 {
		code.Interval = 5
	}
	return code, nil
}

// WaitForAccessToken polls GitHub until the user completes the sign-in,
// then returns the personal access token. It honors the server-provided
// polling interval, slows down when asked to, and stops on context
// cancellation or a terminal error.
func (c *Client) WaitForAccessToken(ctx context.Context, code DeviceCode) (string, error) {
	interval := time.Duration(code.Interval) * time.Second
	deadline := time.Now().Add(time.Duration(code.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		if code.ExpiresIn > 0 && time.Now().After(deadline) {
			return "", ErrDeviceCodeExpired
		}

		token, err := c.pollAccessToken(ctx, code.DeviceCode)
		switch {
		case err == nil:
			return token, nil
		case errors.Is(err, errAuthorizationPending):
			continue
		case errors.Is(err, errSlowDown):
			interval += 5 * time.Second
			continue
		default:
			return "", err
		}
	}
}

// Poll outcomes that keep the loop going.
var (
	errAuthorizationPending = errors.New("authorization pending")
	errSlowDown             = errors.New("slow down")
)

func (c *Client) pollAccessToken(ctx context.Context, deviceCode string) (string, error) {
	form := url.Values{
		"client_id":   {copilotClientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}

	var result struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := c.postForm(ctx, c.oauthTokenURL, form, &result); err != nil {
		return "", err
	}

	switch result.Error {
	case "":
		if result.AccessToken == "" {
			return "", errors.New("access token response missing token")
		}
		return result.AccessToken, nil
	case "authorization_pending":
		return "", errAuthorizationPending
	case "slow_down":
		return "", errSlowDown
	case "access_denied":
		return "", ErrAccessDenied
	case "expired_token":
		return "", ErrDeviceCodeExpired
	default:
		return "", fmt.Errorf("sign-in failed: %s", result.Error)
	}
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
