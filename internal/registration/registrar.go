package registration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"ridiexport/internal/credentials"
	"ridiexport/internal/logging"
)

// CredentialWriter persists a registered device.
type CredentialWriter interface {
	AddOrUpdate(userID, deviceID, deviceName string, extra map[string]any) (credentials.Credential, error)
}

// Result describes a successful registration.
type Result struct {
	UserID     string
	DeviceName string
	Credential credentials.Credential
}

// Message returns the user-facing confirmation line.
func (r Result) Message() string {
	if r.DeviceName == "" {
		return fmt.Sprintf("registered device for %s", r.UserID)
	}
	return fmt.Sprintf("registered %s (%s)", r.UserID, r.DeviceName)
}

// Registrar validates payloads and writes them into a credential store.
type Registrar struct {
	store  CredentialWriter
	logger *slog.Logger
}

// NewRegistrar builds a Registrar writing into store.
func NewRegistrar(store CredentialWriter, logger *slog.Logger) *Registrar {
	return &Registrar{
		store:  store,
		logger: logging.NewComponentLogger(logger, "registration"),
	}
}

// Register parses text and stores the first device it describes. On any
// failure the store is left untouched.
func (r *Registrar) Register(text string) (Result, error) {
	device, err := ParsePayload(text)
	if err != nil {
		r.logger.Info("device payload rejected", logging.Error(err))
		return Result{}, err
	}

	cred, err := r.store.AddOrUpdate(device.UserID, device.DeviceID, device.DeviceName, device.Extra)
	if err != nil {
		return Result{}, fmt.Errorf("store credential: %w", err)
	}
	return Result{UserID: cred.UserID, DeviceName: cred.DeviceName, Credential: cred}, nil
}

// RegisterBytes is Register for raw input such as stdin contents.
func (r *Registrar) RegisterBytes(data []byte) (Result, error) {
	if !looksLikePayload(data) {
		return Result{}, fmt.Errorf("%w: no JSON object found", ErrInvalidPayload)
	}
	return r.Register(string(data))
}

// LoginURL builds the login address whose state sends the browser to the
// device list endpoint after sign-in.
func LoginURL(loginURL, devicesAPIURL string) (string, error) {
	loginURL = strings.TrimSpace(loginURL)
	devicesAPIURL = strings.TrimSpace(devicesAPIURL)
	if loginURL == "" || devicesAPIURL == "" {
		return "", fmt.Errorf("login and device endpoints are required")
	}
	base, err := url.Parse(loginURL)
	if err != nil {
		return "", fmt.Errorf("parse login url: %w", err)
	}
	state, err := json.Marshal(map[string]string{"return_url": devicesAPIURL})
	if err != nil {
		return "", fmt.Errorf("encode login state: %w", err)
	}
	query := base.Query()
	query.Set("state", string(state))
	base.RawQuery = query.Encode()
	return base.String(), nil
}
