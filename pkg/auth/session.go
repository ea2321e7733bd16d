package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName  = "menuguard_session"
	sessionToken = "token"
)

// SessionManager stores the issued JWT in an encrypted HTTP-only cookie so
// browser clients stay signed in without handling the token themselves.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager creates a SessionManager keyed with the session secret.
func NewSessionManager(sessionKey string, secure bool, maxAge int) *SessionManager {
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

// SaveToken writes the token into the session cookie.
func (m *SessionManager) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values[sessionToken] = token
	return session.Save(r, w)
}

// TokenFromRequest reads the token from the session cookie if present.
func (m *SessionManager) TokenFromRequest(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return "", false
	}
	token, ok := session.Values[sessionToken].(string)
	return token, ok && token != ""
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	delete(session.Values, sessionToken)
	return session.Save(r, w)
}
