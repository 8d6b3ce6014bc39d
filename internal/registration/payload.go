package registration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPayload reports text that does not contain a JSON object.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrMissingDevices reports a payload without any user_devices entries.
	ErrMissingDevices = errors.New("no devices in payload")
	// ErrIncompleteDevice reports a device entry missing user_idx or device_id.
	ErrIncompleteDevice = errors.New("incomplete device entry")
)

// Device is one entry of the user_devices array.
type Device struct {
	UserID     string
	DeviceID   string
	DeviceName string
	Extra      map[string]any
}

type devicesPayload struct {
	UserDevices []map[string]any `json:"user_devices"`
}

// ParsePayload extracts the first device from pasted text. Any prefix before
// the first '{' is discarded and anything after the first complete JSON value
// is ignored.
func ParsePayload(text string) (Device, error) {
	text = strings.TrimSpace(text)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return Device{}, fmt.Errorf("%w: no JSON object found", ErrInvalidPayload)
	}

	dec := json.NewDecoder(strings.NewReader(text[start:]))
	dec.UseNumber()
	var payload devicesPayload
	if err := dec.Decode(&payload); err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(payload.UserDevices) == 0 {
		return Device{}, ErrMissingDevices
	}

	// Only the first device is used; the payload lists every device on the
	// account and picking among them is left to the user re-registering.
	entry := payload.UserDevices[0]
	if entry == nil {
		return Device{}, fmt.Errorf("%w: first device is not an object", ErrIncompleteDevice)
	}

	device := Device{
		UserID:     scalarString(entry["user_idx"]),
		DeviceID:   scalarString(entry["device_id"]),
		DeviceName: scalarString(entry["device_nick"]),
	}
	var missing []string
	if device.UserID == "" {
		missing = append(missing, "user_idx")
	}
	if device.DeviceID == "" {
		missing = append(missing, "device_id")
	}
	if len(missing) > 0 {
		return Device{}, fmt.Errorf("%w: missing %s", ErrIncompleteDevice, strings.Join(missing, " and "))
	}

	for key, value := range entry {
		switch key {
		case "user_idx", "device_id", "device_nick":
			continue
		}
		if device.Extra == nil {
			device.Extra = make(map[string]any)
		}
		device.Extra[key] = value
	}
	return device, nil
}

// scalarString renders string and numeric JSON values; anything else is empty.
func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// looksLikePayload reports whether text contains an object to decode.
func looksLikePayload(text []byte) bool {
	return bytes.IndexByte(text, '{') >= 0
}
