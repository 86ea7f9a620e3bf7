package session

import "encoding/json"

// Type names which principal kind, if any, is currently active. It is
// persisted separately from the records so "no active session" stays
// representable even when stale record bytes remain in the store.
type Type string

const (
	TypeNone  Type = ""
	TypeUser  Type = "user"
	TypeAdmin Type = "admin"
)

// RoleAdmin is the only admin role the client accepts. The check is an
// exact match on this literal; broadening it to further roles needs
// product confirmation.
const RoleAdmin = "ADMIN"

// UserRecord proves an ordinary member is authenticated.
type UserRecord struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

// AdminRecord proves an administrator is authenticated.
type AdminRecord struct {
	Token   string `json:"token"`
	Email   string `json:"email"`
	AdminID string `json:"adminId"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role"`
	Active  bool   `json:"active"`
}

// ValidUser reports whether r is a complete user record: a non-empty
// credential token, email and user id. Nil is invalid.
func ValidUser(r *UserRecord) bool {
	return r != nil && r.Token != "" && r.Email != "" && r.UserID != ""
}

// ValidAdmin reports whether r is a complete admin record: a non-empty
// credential token, admin id and the exact RoleAdmin role. Nil is
// invalid.
func ValidAdmin(r *AdminRecord) bool {
	return r != nil && r.Token != "" && r.AdminID != "" && r.Role == RoleAdmin
}

// Snapshot is one consistent view of the persisted session state. At
// most one of User and Admin is non-nil, and Type always agrees with
// whichever is set.
type Snapshot struct {
	Type  Type
	User  *UserRecord
	Admin *AdminRecord
}

// None is the snapshot representing "nobody is signed in".
func None() Snapshot {
	return Snapshot{Type: TypeNone}
}

// Token returns the credential token of the active record, or "".
func (s Snapshot) Token() string {
	switch s.Type {
	case TypeUser:
		if s.User != nil {
			return s.User.Token
		}
	case TypeAdmin:
		if s.Admin != nil {
			return s.Admin.Token
		}
	}
	return ""
}

// decodeUser parses raw JSON into a user record. Malformed or
// incomplete data yields (nil, false): never a half-valid record.
func decodeUser(raw string) (*UserRecord, bool) {
	var r UserRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, false
	}
	if !ValidUser(&r) {
		return nil, false
	}
	return &r, true
}

func decodeAdmin(raw string) (*AdminRecord, bool) {
	var r AdminRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, false
	}
	if !ValidAdmin(&r) {
		return nil, false
	}
	return &r, true
}
