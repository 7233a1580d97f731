package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Storage keys of the portal session.
const (
	KeyAppUser      = "app_user"
	KeyAppChecked   = "app_auth_checked"
	KeyAppSessionID = "app_session_id"
)

// User is the portal account returned by the backend after sign-in.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// AppSession is the cached portal sign-in: who is signed in plus the server
// session cookie value that authenticates RPC calls. The server owns the
// session; the client only caches it.
type AppSession struct {
	User      User
	SessionID string
}

// AppCodec persists the portal user as JSON plus a checked marker. The
// session id is optional so a user cached without one still decodes; the
// next RPC then fails and clears it.
type AppCodec struct{}

func (AppCodec) Keys() []string {
	return []string{KeyAppUser, KeyAppChecked, KeyAppSessionID}
}

func (AppCodec) Encode(s AppSession) (map[string]string, error) {
	if strings.TrimSpace(s.User.ID) == "" {
		return nil, fmt.Errorf("%w: user id is empty", ErrMalformedCredential)
	}
	raw, err := json.Marshal(s.User)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
	}
	return map[string]string{
		KeyAppUser:      string(raw),
		KeyAppChecked:   "true",
		KeyAppSessionID: s.SessionID,
	}, nil
}

func (AppCodec) Decode(values map[string]string, _ time.Time) (AppSession, error) {
	raw := values[KeyAppUser]
	if raw == "" || values[KeyAppChecked] == "" {
		return AppSession{}, ErrNoCredential
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return AppSession{}, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
	}
	if strings.TrimSpace(user.ID) == "" {
		return AppSession{}, fmt.Errorf("%w: user id is empty", ErrMalformedCredential)
	}
	return AppSession{User: user, SessionID: values[KeyAppSessionID]}, nil
}

func (AppCodec) Tags(s AppSession) map[string]string {
	return map[string]string{"user_id": s.User.ID}
}
