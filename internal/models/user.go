package models

import "fmt"

// UserRole is the backend's role enumeration
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleAdmin      UserRole = "ADMIN"
)

// Roles lists the roles a user can register with
var Roles = []UserRole{RoleStudent, RoleInstructor, RoleAdmin}

// UserProfile is the identity mapping returned by the backend.
// Its shape is owned by the backend; accessors only read well-known keys.
type UserProfile map[string]any

// ID returns the "id" field rendered as a string, or "" when absent
func (u UserProfile) ID() string {
	return u.stringField("id")
}

func (u UserProfile) Email() string {
	return u.stringField("email")
}

func (u UserProfile) Name() string {
	return u.stringField("name")
}

func (u UserProfile) Role() string {
	return u.stringField("role")
}

// Merge returns a shallow copy of u with every key of partial applied on top
func (u UserProfile) Merge(partial UserProfile) UserProfile {
	merged := make(UserProfile, len(u)+len(partial))
	for k, v := range u {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy, or nil for a nil profile
func (u UserProfile) Clone() UserProfile {
	if u == nil {
		return nil
	}
	return u.Merge(nil)
}

func (u UserProfile) stringField(key string) string {
	v, ok := u[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; ids like 7 should print as "7"
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role,omitempty"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token   string      `json:"token"`
	User    UserProfile `json:"user"`
	Message string      `json:"message,omitempty"`
}

// ValidateRequest is the body of POST /auth/validate
type ValidateRequest struct {
	Token string `json:"token"`
}

// TokenValidation is the response of POST /auth/validate
type TokenValidation struct {
	Valid bool        `json:"valid"`
	User  UserProfile `json:"user,omitempty"`
	Error string      `json:"error,omitempty"`
}
