package session

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// UserSessionName holds the serialized models.UserSession.
	UserSessionName = "user-session"
	// FormSessionName holds the id of the browser's form instance.
	FormSessionName = "auth-form"

	UserKey   = "user-session"
	FormIDKey = "form-id"
)

var Store *sessions.CookieStore

func InitSession(secret, domain string, secure bool) {
	Store = NewStore(secret, domain, secure)
}

func NewStore(secret, domain string, secure bool) *sessions.CookieStore {
	hash := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(hash[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
