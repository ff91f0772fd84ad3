// Package companion detects a locally running Player2 companion app and
// obtains a session key from it.
package companion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/logger"
	"github.com/lorehaven/recap/internal/providers"
)

const (
	// DefaultLocalBaseURL is the companion app's fixed local endpoint.
	DefaultLocalBaseURL = "http://127.0.0.1:4315"

	// sessionKeyField is the response field carrying the session key.
	sessionKeyField = "p2Key"

	healthTimeout = 2 * time.Second
	loginTimeout  = 3 * time.Second
)

// Errors
var (
	ErrNotRunning = errors.New("companion app not reachable")
	ErrNoKey      = errors.New("login response carried no session key")
)

// Detector probes for the local companion app and logs in against it.
type Detector struct {
	baseURL  string
	clientID string
	log      *logger.Logger
}

// NewDetector creates a detector against the given base URL. An empty base
// URL falls back to the fixed local endpoint. Each detector mints its own
// client id for the login exchange.
func NewDetector(baseURL string) *Detector {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	return &Detector{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: uuid.NewString(),
		log:      logger.GetLogger("companion"),
	}
}

// BaseURL returns the base URL the detector probes.
func (d *Detector) BaseURL() string {
	return d.baseURL
}

// Detect checks the companion app's health endpoint and, if it answers,
// performs the login exchange and returns the session key.
func (d *Detector) Detect(ctx context.Context) (string, error) {
	if err := d.checkHealth(ctx); err != nil {
		return "", err
	}

	d.log.Debug("Companion app is up, logging in")
	return d.login(ctx)
}

// DetectAsync runs Detect in the background and hands the outcome to done.
func (d *Detector) DetectAsync(ctx context.Context, done func(key string, err error)) {
	go func() {
		key, err := d.Detect(ctx)
		done(key, err)
	}()
}

func (d *Detector) checkHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return errortypes.InternalError(err, "error creating health request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errortypes.TransientError(ErrNotRunning, err.Error())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errortypes.TransientError(ErrNotRunning, fmt.Sprintf("health returned HTTP %d", resp.StatusCode))
	}

	return nil
}

func (d *Detector) login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/login/web/%s", d.baseURL, d.clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return "", errortypes.InternalError(err, "error creating login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errortypes.TransientError(err, "login request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errortypes.TransientError(err, "error reading login response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", errortypes.AuthenticationError(
			fmt.Errorf("HTTP %d", resp.StatusCode), "companion login rejected")
	}

	key, ok := providers.ExtractField(string(body), sessionKeyField)
	if !ok || key == "" {
		return "", errortypes.MalformedResponseError(ErrNoKey, "companion login response")
	}

	return key, nil
}
