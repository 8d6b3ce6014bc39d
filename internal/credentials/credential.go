package credentials

import "strings"

// Credential binds a user identity to a registered device.
type Credential struct {
	UserID     string         `json:"user_idx"`
	DeviceID   string         `json:"device_id"`
	DeviceName string         `json:"device_name,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Label returns a display string for the credential.
func (c Credential) Label() string {
	if name := strings.TrimSpace(c.DeviceName); name != "" {
		return c.UserID + " (" + name + ")"
	}
	return c.UserID
}

func (c Credential) clone() Credential {
	if c.Extra != nil {
		extra := make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			extra[k] = v
		}
		c.Extra = extra
	}
	return c
}

// Set is the persisted collection of credentials plus the active marker.
// ActiveUser is empty or names a member of Users.
type Set struct {
	Users      []Credential `json:"users"`
	ActiveUser string       `json:"active_user,omitempty"`
}

// Active returns the credential named by ActiveUser.
func (s Set) Active() (Credential, bool) {
	if s.ActiveUser == "" {
		return Credential{}, false
	}
	if i := s.index(s.ActiveUser); i >= 0 {
		return s.Users[i].clone(), true
	}
	return Credential{}, false
}

func (s Set) index(userID string) int {
	for i, c := range s.Users {
		if c.UserID == userID {
			return i
		}
	}
	return -1
}

func (s Set) clone() Set {
	out := Set{ActiveUser: s.ActiveUser}
	if s.Users != nil {
		out.Users = make([]Credential, len(s.Users))
		for i, c := range s.Users {
			out.Users[i] = c.clone()
		}
	}
	return out
}

// normalize drops entries without an identity, keeps the last entry for a
// duplicated identity, and clears a dangling active marker. It reports
// whether anything changed.
func (s *Set) normalize() bool {
	changed := false
	kept := make([]Credential, 0, len(s.Users))
	for _, c := range s.Users {
		if strings.TrimSpace(c.UserID) == "" {
			changed = true
			continue
		}
		if i := (Set{Users: kept}).index(c.UserID); i >= 0 {
			kept[i] = c
			changed = true
			continue
		}
		kept = append(kept, c)
	}
	if s.Users != nil || len(kept) > 0 {
		s.Users = kept
	}
	if s.ActiveUser != "" && s.index(s.ActiveUser) < 0 {
		s.ActiveUser = ""
		changed = true
	}
	return changed
}
