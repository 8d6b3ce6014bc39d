package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ridiexport/internal/registration"
)

func TestAuthRegisterListSwitchRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	noisy := "copied from browser:\n{\"user_devices\":[{\"user_idx\":\"1001\",\"device_id\":\"dev-aaaa-1111\",\"device_nick\":\"Laptop\"}]}\n"
	out, _, err := runCLI(t, env, noisy, "auth", "register")
	if err != nil {
		t.Fatalf("auth register: %v", err)
	}
	requireContains(t, out, "registered 1001 (Laptop)")

	out, _, err = runCLI(t, env, "", "auth", "register",
		`{"user_devices":[{"user_idx":"2002","device_id":"dev-bbbb-2222"}]}`)
	if err != nil {
		t.Fatalf("auth register arg: %v", err)
	}
	requireContains(t, out, "Active account is still 1001 (Laptop)")

	out, _, err = runCLI(t, env, "", "auth", "list")
	if err != nil {
		t.Fatalf("auth list: %v", err)
	}
	requireContains(t, out, "1001")
	requireContains(t, out, "2002")
	requireContains(t, out, "1111")
	requireNotContains(t, out, "dev-aaaa-1111")

	if _, _, err := runCLI(t, env, "", "auth", "switch", "2002"); err != nil {
		t.Fatalf("auth switch: %v", err)
	}
	out, _, err = runCLI(t, env, "", "auth", "list", "--json")
	if err != nil {
		t.Fatalf("auth list --json: %v", err)
	}
	var views []credentialView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode list: %v (%s)", err, out)
	}
	if len(views) != 2 || views[0].Active || !views[1].Active {
		t.Fatalf("unexpected views %+v", views)
	}

	out, _, err = runCLI(t, env, "", "auth", "remove", "2002")
	if err != nil {
		t.Fatalf("auth remove: %v", err)
	}
	requireContains(t, out, "Active account: 1001 (Laptop)")

	if _, _, err := runCLI(t, env, "", "auth", "switch", "9999"); err == nil {
		t.Fatal("expected error switching to unknown account")
	}
}

func TestAuthRegisterFromFile(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "devices.json")
	if err := os.WriteFile(path, []byte(`{"user_devices":[{"user_idx":5,"device_id":"d5"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, env, "", "auth", "register", "--file", path)
	if err != nil {
		t.Fatalf("auth register --file: %v", err)
	}
	requireContains(t, out, "registered device for 5")
}

func TestAuthRegisterInvalidPayloadLeavesNoFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "no json here", "auth", "register")
	if !errors.Is(err, registration.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	_, _, err = runCLI(t, env, `{"user_devices":[]}`, "auth", "register")
	if !errors.Is(err, registration.ErrMissingDevices) {
		t.Fatalf("expected ErrMissingDevices, got %v", err)
	}
	if _, err := os.Stat(env.cfg.Paths.AuthFile); !os.IsNotExist(err) {
		t.Fatalf("credential file should not exist, stat err=%v", err)
	}
}

func TestAuthLoginPrintsURL(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "", "auth", "login", "--no-browser", "--no-wait")
	if err != nil {
		t.Fatalf("auth login: %v", err)
	}
	requireContains(t, out, "Login URL: https://ridibooks.com/account/login?state=")
	requireContains(t, out, "auth register")
}

func TestAuthLoginRegistersPastedPayload(t *testing.T) {
	env := setupCLITestEnv(t)

	payload := `{"user_devices":[{"user_idx":"77","device_id":"d77","device_nick":"Reader"}]}`
	out, _, err := runCLI(t, env, payload, "auth", "login", "--no-browser")
	if err != nil {
		t.Fatalf("auth login: %v", err)
	}
	requireContains(t, out, "registered 77 (Reader)")
}

func TestMaskDeviceID(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"abcd":     "abcd",
		"abcdefgh": "****efgh",
	}
	for in, want := range tests {
		if got := maskDeviceID(in); got != want {
			t.Fatalf("maskDeviceID(%q) = %q, want %q", in, got, want)
		}
	}
}
