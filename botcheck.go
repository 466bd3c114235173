package agencykit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verifier decides whether a public form submission came from a human.
// A false result rejects the submission before anything is persisted.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) bool
}

// AllowAll accepts every submission. Used in development and tests,
// and whenever no captcha secret is configured.
type AllowAll struct{}

// Verify implements Verifier.
func (AllowAll) Verify(context.Context, string, string) bool { return true }

const recaptchaEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier checks submission tokens against the reCAPTCHA v3
// siteverify endpoint.
type RecaptchaVerifier struct {
	Secret   string
	MinScore float64
	Endpoint string       // defaults to the Google endpoint
	Client   *http.Client // defaults to a 5s-timeout client
}

type siteverifyResponse struct {
	Success bool    `json:"success"`
	Score   float64 `json:"score"`
	Action  string  `json:"action"`
}

// Verify implements Verifier. Network or decode failures count as a
// failed check: the submission is rejected with a retry prompt rather
// than silently accepted.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) bool {
	if token == "" {
		return false
	}
	endpoint := v.Endpoint
	if endpoint == "" {
		endpoint = recaptchaEndpoint
	}
	client := v.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Success && body.Score >= v.MinScore
}
