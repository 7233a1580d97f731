package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Storage keys of the console credential.
const (
	KeyConsoleToken          = "console_token"
	KeyConsoleExpiresAt      = "console_expires_at"
	KeyConsoleOrganizationID = "console_organization_id"
)

// ConsoleCredential is an organization login: a bearer token valid until
// ExpiresAt.
type ConsoleCredential struct {
	Token          string
	ExpiresAt      time.Time
	OrganizationID string
}

// NewConsoleCredential derives the expiry from the lifetime the login
// response reports.
func NewConsoleCredential(token string, expiresIn time.Duration, organizationID string, now time.Time) ConsoleCredential {
	return ConsoleCredential{
		Token:          token,
		ExpiresAt:      now.Add(expiresIn),
		OrganizationID: organizationID,
	}
}

// ConsoleCodec persists console credentials. The expiry is stored as epoch
// milliseconds.
type ConsoleCodec struct{}

func (ConsoleCodec) Keys() []string {
	return []string{KeyConsoleToken, KeyConsoleExpiresAt, KeyConsoleOrganizationID}
}

func (ConsoleCodec) Encode(cred ConsoleCredential) (map[string]string, error) {
	if strings.TrimSpace(cred.Token) == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrMalformedCredential)
	}
	if cred.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: expiry is missing", ErrMalformedCredential)
	}
	return map[string]string{
		KeyConsoleToken:          cred.Token,
		KeyConsoleExpiresAt:      strconv.FormatInt(cred.ExpiresAt.UnixMilli(), 10),
		KeyConsoleOrganizationID: cred.OrganizationID,
	}, nil
}

func (ConsoleCodec) Decode(values map[string]string, now time.Time) (ConsoleCredential, error) {
	token := values[KeyConsoleToken]
	rawExpiry := values[KeyConsoleExpiresAt]
	if token == "" || rawExpiry == "" {
		return ConsoleCredential{}, ErrNoCredential
	}
	millis, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return ConsoleCredential{}, fmt.Errorf("%w: expiry %q", ErrMalformedCredential, rawExpiry)
	}
	expiresAt := time.UnixMilli(millis)
	if !now.Before(expiresAt) {
		return ConsoleCredential{}, fmt.Errorf("%w at %s", ErrExpiredCredential, expiresAt.UTC().Format(time.RFC3339))
	}
	return ConsoleCredential{
		Token:          token,
		ExpiresAt:      expiresAt,
		OrganizationID: values[KeyConsoleOrganizationID],
	}, nil
}

// Tags scopes reports to the logged in organization.
func (ConsoleCodec) Tags(cred ConsoleCredential) map[string]string {
	if cred.OrganizationID == "" {
		return nil
	}
	return map[string]string{"organization_id": cred.OrganizationID}
}
