package identity

import (
	"strings"
	"time"
)

// Role is the access role attached to a user and embedded into access tokens.
type Role string

const (
	// RolePatient is the default role for self-registered users.
	RolePatient Role = "patient"
	// RoleDoctor may read vitals of any patient.
	RoleDoctor Role = "doctor"
)

// ParseRole maps a raw role string to a known Role.
// An empty string defaults to RolePatient; anything else is rejected.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return RolePatient, true
	case RolePatient:
		return RolePatient, true
	case RoleDoctor:
		return RoleDoctor, true
	default:
		return "", false
	}
}

// User is the vitalis security principal.
// PasswordHash is a bcrypt hash; the plain password is never stored.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role

	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
}

const minNameLen = 4

// NewUser builds a validated User record with all defaults applied explicitly.
// There is no implicit mutation on save: what this constructor returns is what
// the store persists.
func NewUser(now time.Time, name, email, passwordHash string, role Role) (User, error) {
	const op = "identity.NewUser"

	name = strings.TrimSpace(name)
	if len(name) < minNameLen {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "name is required (min 4 chars)"}
	}

	emailNorm := NormalizeEmail(email)
	if !emailLooksValid(emailNorm) {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "invalid email"}
	}

	if strings.TrimSpace(passwordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	switch role {
	case RolePatient, RoleDoctor:
	case "":
		role = RolePatient
	default:
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "unknown role"}
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:           id,
		Name:         name,
		Email:        emailNorm,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

func emailLooksValid(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	if !strings.Contains(s[at+1:], ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}
