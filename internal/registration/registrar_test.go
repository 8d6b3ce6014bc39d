package registration_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"ridiexport/internal/credentials"
	"ridiexport/internal/logging"
	"ridiexport/internal/registration"
)

func newRegistrar(t *testing.T) (*registration.Registrar, *credentials.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.json")
	store, err := credentials.Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return registration.NewRegistrar(store, logging.NewNop()), store, path
}

func TestRegisterStoresFirstDevice(t *testing.T) {
	registrar, store, _ := newRegistrar(t)

	result, err := registrar.Register(`{"user_devices":[{"user_idx":"u1","device_id":"d1","device_nick":"Phone"}]}`)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.UserID != "u1" || result.DeviceName != "Phone" {
		t.Fatalf("unexpected result %#v", result)
	}

	active, ok := store.Active()
	if !ok {
		t.Fatal("expected an active credential")
	}
	if active.UserID != "u1" || active.DeviceID != "d1" || active.DeviceName != "Phone" {
		t.Fatalf("unexpected active credential %#v", active)
	}
}

func TestRegisterPersistsLargeExtraNumbersExactly(t *testing.T) {
	registrar, _, path := newRegistrar(t)

	if _, err := registrar.Register(`{"user_devices":[{"user_idx":"u1","device_id":"d1","issued":9007199254740993}]}`); err != nil {
		t.Fatalf("Register: %v", err)
	}

	reloaded, err := credentials.Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reloaded.List()
	if len(got) != 1 || got[0].Extra["issued"] != json.Number("9007199254740993") {
		t.Fatalf("expected exact large integer after reload, got %#v", got)
	}
}

func TestRegisterEmptyDevicesLeavesStoreUntouched(t *testing.T) {
	registrar, store, path := newRegistrar(t)

	_, err := registrar.Register(`{"user_devices":[]}`)
	if !errors.Is(err, registration.ErrMissingDevices) {
		t.Fatalf("expected ErrMissingDevices, got %v", err)
	}
	if len(store.List()) != 0 {
		t.Fatal("expected store to stay empty")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no credential file, got err=%v", err)
	}
}

func TestRegisterFailureKeepsExistingState(t *testing.T) {
	registrar, store, _ := newRegistrar(t)
	if _, err := registrar.Register(`{"user_devices":[{"user_idx":"u1","device_id":"d1"}]}`); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before := store.Snapshot()

	if _, err := registrar.Register(`{"user_devices":[{"user_idx":"u2"}]}`); !errors.Is(err, registration.ErrIncompleteDevice) {
		t.Fatalf("expected ErrIncompleteDevice, got %v", err)
	}
	after := store.Snapshot()
	if len(after.Users) != len(before.Users) || after.ActiveUser != before.ActiveUser {
		t.Fatalf("store changed after failed registration: before %#v after %#v", before, after)
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		want    registration.Device
	}{
		{
			name:  "noise prefix and suffix",
			input: "GET /api 200 OK\n{\"user_devices\":[{\"user_idx\":\"u1\",\"device_id\":\"d1\"}]}\ntrailing log line",
			want:  registration.Device{UserID: "u1", DeviceID: "d1"},
		},
		{
			name:  "numeric user idx",
			input: `{"user_devices":[{"user_idx":1234567,"device_id":"d1","device_nick":"Tab"}]}`,
			want:  registration.Device{UserID: "1234567", DeviceID: "d1", DeviceName: "Tab"},
		},
		{
			name:  "first device wins",
			input: `{"user_devices":[{"user_idx":"u1","device_id":"first"},{"user_idx":"u1","device_id":"second"}]}`,
			want:  registration.Device{UserID: "u1", DeviceID: "first"},
		},
		{name: "no brace", input: "copy failed", wantErr: registration.ErrInvalidPayload},
		{name: "empty", input: "   ", wantErr: registration.ErrInvalidPayload},
		{name: "syntax error", input: `{"user_devices": [`, wantErr: registration.ErrInvalidPayload},
		{name: "missing devices", input: `{"other": 1}`, wantErr: registration.ErrMissingDevices},
		{name: "empty devices", input: `{"user_devices": []}`, wantErr: registration.ErrMissingDevices},
		{name: "missing device id", input: `{"user_devices":[{"user_idx":"u1"}]}`, wantErr: registration.ErrIncompleteDevice},
		{name: "blank user idx", input: `{"user_devices":[{"user_idx":"  ","device_id":"d1"}]}`, wantErr: registration.ErrIncompleteDevice},
		{name: "null entry", input: `{"user_devices":[null]}`, wantErr: registration.ErrIncompleteDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registration.ParsePayload(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload: %v", err)
			}
			if got.UserID != tt.want.UserID || got.DeviceID != tt.want.DeviceID || got.DeviceName != tt.want.DeviceName {
				t.Fatalf("unexpected device %#v", got)
			}
		})
	}
}

func TestParsePayloadKeepsExtraFields(t *testing.T) {
	device, err := registration.ParsePayload(`{"user_devices":[{"user_idx":"u1","device_id":"d1","device_code":"PC","id":42,"issued":9007199254740993}]}`)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if device.Extra["device_code"] != "PC" {
		t.Fatalf("expected device_code in extra, got %#v", device.Extra)
	}
	if device.Extra["id"] != json.Number("42") {
		t.Fatalf("expected numeric extra as json.Number, got %#v", device.Extra["id"])
	}
	if device.Extra["issued"] != json.Number("9007199254740993") {
		t.Fatalf("expected large integer to keep every digit, got %#v", device.Extra["issued"])
	}
	if _, ok := device.Extra["user_idx"]; ok {
		t.Fatal("identity fields must not be duplicated into extra")
	}
}

func TestLoginURLCarriesReturnState(t *testing.T) {
	raw, err := registration.LoginURL("https://example.com/account/login", "https://example.com/api/devices")
	if err != nil {
		t.Fatalf("LoginURL: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := parsed.Query().Get("state"); got != `{"return_url":"https://example.com/api/devices"}` {
		t.Fatalf("unexpected state %q", got)
	}
	if _, err := registration.LoginURL("", "x"); err == nil {
		t.Fatal("expected error for empty login url")
	}
}
