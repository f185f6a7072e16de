package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/pkg/session"
)

// ensureFormID returns the browser's form instance id, issuing one on first visit. It must run
// before anything is written to w.
func ensureFormID(store sessions.Store, w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := store.Get(r, session.FormSessionName)
	if err != nil {
		log.WithError(err).Warn("Discarding unreadable form session")
	}
	if id, ok := sess.Values[session.FormIDKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[session.FormIDKey] = id
	if saveErr := sess.Save(r, w); saveErr != nil {
		return "", saveErr
	}
	return id, nil
}

func startUserSession(store sessions.Store, w http.ResponseWriter, r *http.Request, identity *models.Identity, pendingLink bool) error {
	sess, err := store.Get(r, session.UserSessionName)
	if err != nil {
		log.WithError(err).Warn("Replacing unreadable user session")
	}

	us := models.NewUserSession(identity, uuid.NewString(), pendingLink)
	serialized, serErr := us.Serialize()
	if serErr != nil {
		return serErr
	}
	sess.Values[session.UserKey] = serialized
	return sess.Save(r, w)
}

// currentUser returns the stored user session, or nil when there is none.
func currentUser(store sessions.Store, r *http.Request) *models.UserSession {
	sess, err := store.Get(r, session.UserSessionName)
	if err != nil {
		log.WithError(err).Warn("Session store corruption detected")
		return nil
	}
	raw, ok := sess.Values[session.UserKey].(string)
	if !ok || raw == "" {
		return nil
	}
	us, deserErr := models.DeserializeUserSession(raw)
	if deserErr != nil {
		log.WithError(deserErr).Warn("Failed to deserialize stored user session - treating as unauthenticated")
		return nil
	}
	return us
}

func clearSession(store sessions.Store, w http.ResponseWriter, r *http.Request, name string) error {
	sess, err := store.Get(r, name)
	if err != nil {
		log.WithError(err).Debug("Clearing unreadable session")
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
