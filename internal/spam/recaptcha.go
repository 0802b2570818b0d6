package spam

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

// DefaultRecaptchaVerifyURL is Google's siteverify endpoint.
const DefaultRecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// ErrVerifierUnavailable wraps transport and decoding failures. The gate
// treats it as a pass.
var ErrVerifierUnavailable = errors.New("spam: verification provider unavailable")

// Verifier checks a challenge token with a human-verification provider.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type recaptchaResponse struct {
	Success     bool     `json:"success"`
	Score       *float64 `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// RecaptchaConfig configures a RecaptchaVerifier.
type RecaptchaConfig struct {
	Secret    string
	VerifyURL string
	MinScore  float64
	Timeout   time.Duration
}

// RecaptchaVerifier verifies v2 and v3 tokens. v3 responses carry a score
// which must reach MinScore.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	minScore  float64
	client    *http.Client
}

func NewRecaptchaVerifier(cfg RecaptchaConfig) *RecaptchaVerifier {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultRecaptchaVerifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &RecaptchaVerifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		minScore:  cfg.MinScore,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	var out recaptchaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decode: %v", ErrVerifierUnavailable, err)
	}
	if !out.Success {
		return false, nil
	}
	if out.Score != nil && *out.Score < v.minScore {
		return false, nil
	}
	return true, nil
}
