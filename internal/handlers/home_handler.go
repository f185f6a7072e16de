package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/form"
	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/internal/templates"
	"github.com/zobayer1/bankzest/pkg/session"
)

type HomeHandler struct {
	forms    *form.Registry
	store    sessions.Store
	tmplHome *template.Template
	tmplLink *template.Template
}

func NewHomeHandler(forms *form.Registry, store sessions.Store) *HomeHandler {
	return &HomeHandler{
		forms:    forms,
		store:    store,
		tmplHome: templates.Page("home.html"),
		tmplLink: templates.Page("link_account.html"),
	}
}

func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.store, r)
	switch {
	case user == nil:
		http.Redirect(w, r, "/sign-in", http.StatusFound)
		return
	case user.PendingLink:
		http.Redirect(w, r, "/link-account", http.StatusFound)
		return
	case !user.IsAuthenticated:
		http.Redirect(w, r, "/sign-in", http.StatusFound)
		return
	}

	data := models.PageData{
		Page:        "home",
		Title:       "Home - BankZest",
		SubTitle:    "Welcome",
		CurrentUser: *user,
	}
	h.execute(w, h.tmplHome, data)
}

// HandleLinkAccount shows the secondary step after registration. Connecting the external
// financial account happens client-side against the aggregator.
func (h *HomeHandler) HandleLinkAccount(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.store, r)
	if user == nil || !user.PendingLink {
		http.Redirect(w, r, "/sign-up", http.StatusFound)
		return
	}

	data := models.PageData{
		Page:        "link-account",
		Title:       "Link Account - BankZest",
		SubTitle:    "Link Account",
		CurrentUser: *user,
	}
	h.execute(w, h.tmplLink, data)
}

func (h *HomeHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if sess, err := h.store.Get(r, session.FormSessionName); err == nil {
		if id, ok := sess.Values[session.FormIDKey].(string); ok {
			h.forms.Drop(id)
		}
	}
	for _, name := range []string{session.UserSessionName, session.FormSessionName} {
		if err := clearSession(h.store, w, r, name); err != nil {
			log.WithError(err).Error("Failed to clear session")
		}
	}
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

func (h *HomeHandler) execute(w http.ResponseWriter, tmpl *template.Template, data models.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.WithError(err).Error("Failed to render page template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
