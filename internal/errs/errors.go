package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSignedIn     = errors.New("not signed in")
)

// InvalidArgument wraps ErrInvalidArgument with a reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

type AuthCode string

const (
	AuthWeakPassword       AuthCode = "weak_password"
	AuthInvalidEmail       AuthCode = "invalid_email"
	AuthEmailInUse         AuthCode = "email_in_use"
	AuthInvalidCredentials AuthCode = "invalid_credentials"
	AuthSessionExpired     AuthCode = "session_expired"
	AuthFailed             AuthCode = "failed"
)

// AuthError is reported by the identity provider. Message is shown to the
// user as is.
type AuthError struct {
	Code    AuthCode
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("auth %s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewAuthError(code AuthCode, err error) *AuthError {
	msg := ""
	switch code {
	case AuthWeakPassword:
		msg = "Password is too weak"
	case AuthInvalidEmail:
		msg = "Invalid email format"
	case AuthEmailInUse:
		msg = "Email already in use"
	case AuthInvalidCredentials:
		msg = "Login failed: invalid email or password"
	case AuthSessionExpired:
		msg = "Session expired, please log in again"
	default:
		msg = "Authentication failed"
		if err != nil {
			msg = "Authentication failed: " + err.Error()
		}
	}
	return &AuthError{Code: code, Message: msg, Err: err}
}

type StoreKind string

const (
	StoreNetwork       StoreKind = "network"
	StorePermission    StoreKind = "permission"
	StoreIndexNotReady StoreKind = "index_not_ready"
	StoreNotSupported  StoreKind = "not_supported"
	StoreUnknown       StoreKind = "unknown"
)

// IndexNotReadyMessage is shown while the backend is still building indexes.
const IndexNotReadyMessage = "Setting up database... Please wait a few minutes and try again."

// StoreError is a failure reported by the document store or the realtime
// channel. Op names the attempted operation, e.g. "profiles.list".
type StoreError struct {
	Kind StoreKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(kind StoreKind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// FieldError is one failed form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is returned by form validation. The first entry is the one a
// single-message UI should show.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

// UserMessage renders err as the short notice shown to a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe FieldErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		return fe[0].Message
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var se *StoreError
	if errors.As(err, &se) {
		switch se.Kind {
		case StoreIndexNotReady:
			return IndexNotReadyMessage
		case StoreNetwork:
			return "Network error, please try again"
		case StorePermission:
			return "Permission denied"
		default:
			return "Something went wrong, please try again"
		}
	}
	if errors.Is(err, ErrInvalidArgument) {
		return strings.TrimPrefix(err.Error(), ErrInvalidArgument.Error()+": ")
	}
	return err.Error()
}

// IsStoreKind reports whether err carries a StoreError of the given kind.
func IsStoreKind(err error, kind StoreKind) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == kind
}
