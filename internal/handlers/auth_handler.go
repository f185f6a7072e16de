package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/form"
	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/internal/schema"
	"github.com/zobayer1/bankzest/internal/templates"
)

type fieldMeta struct {
	label       string
	placeholder string
}

var fieldLabels = map[string]fieldMeta{
	schema.FirstName:   {"First Name", "ex: Super"},
	schema.LastName:    {"Last Name", "ex: Section"},
	schema.Address1:    {"Address", "Enter your specific address"},
	schema.City:        {"City", "Enter your city"},
	schema.State:       {"State", "Example: NY"},
	schema.PostalCode:  {"Postal Code", "Example: 1101"},
	schema.DateOfBirth: {"Date of Birth", "YYYY-MM-DD"},
	schema.SSN:         {"SSN", "Example: 1234"},
	schema.Email:       {"Email", "Enter your email address"},
	schema.Password:    {"Password", "Enter your password"},
}

type AuthHandler struct {
	forms *form.Registry
	store sessions.Store
	tmpl  *template.Template
}

func NewAuthHandler(forms *form.Registry, store sessions.Store) *AuthHandler {
	return &AuthHandler{
		forms: forms,
		store: store,
		tmpl:  templates.Page("auth_form.html"),
	}
}

func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, schema.SignIn)
}

func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, schema.SignUp)
}

func (h *AuthHandler) handle(w http.ResponseWriter, r *http.Request, mode schema.Mode) {
	switch r.Method {
	case http.MethodGet:
		h.getForm(w, r, mode)
	case http.MethodPost:
		h.submitForm(w, r, mode)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) getForm(w http.ResponseWriter, r *http.Request, mode schema.Mode) {
	formID, err := ensureFormID(h.store, w, r)
	if err != nil {
		log.WithError(err).Error("Failed to establish form session")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	ctrl := h.forms.Get(formID, mode)
	if h.pendingLink(ctrl, r) {
		http.Redirect(w, r, "/link-account", http.StatusFound)
		return
	}
	h.render(w, http.StatusOK, ctrl.Snapshot())
}

// pendingLink reports whether the user still owes the linking step. A controller left in
// LinkingRequired without a matching user session is reset so the form is usable again.
func (h *AuthHandler) pendingLink(ctrl *form.Controller, r *http.Request) bool {
	if ctrl.Snapshot().Status.State != form.LinkingRequired {
		return false
	}
	if user := currentUser(h.store, r); user != nil && user.PendingLink {
		return true
	}
	ctrl.Reset()
	return false
}

func (h *AuthHandler) submitForm(w http.ResponseWriter, r *http.Request, mode schema.Mode) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	formID, err := ensureFormID(h.store, w, r)
	if err != nil {
		log.WithError(err).Error("Failed to establish form session")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	ctrl := h.forms.Get(formID, mode)
	if h.pendingLink(ctrl, r) {
		http.Redirect(w, r, "/link-account", http.StatusSeeOther)
		return
	}
	for _, f := range ctrl.Schema().Visible() {
		if vals, ok := r.PostForm[f.Name]; ok && len(vals) > 0 {
			if setErr := ctrl.SetField(f.Name, vals[0]); setErr != nil {
				log.WithError(setErr).Warn("Rejected form field")
			}
		}
	}

	res := ctrl.Submit(r.Context())
	logger := log.WithFields(log.Fields{"form_id": formID, "mode": mode.String(), "outcome": res.Outcome.String()})

	switch res.Outcome {
	case form.OutcomeNavigate:
		if sessErr := startUserSession(h.store, w, r, res.Identity, false); sessErr != nil {
			logger.WithError(sessErr).Error("Failed to save user session")
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		h.forms.Get(formID, schema.SignUp).Reset()
		logger.WithField("user_id", res.Identity.ID).Info("User signed in")
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	case form.OutcomeLinking:
		if sessErr := startUserSession(h.store, w, r, res.Identity, true); sessErr != nil {
			logger.WithError(sessErr).Error("Failed to save user session")
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		logger.WithField("user_id", res.Identity.ID).Info("User registered, linking required")
		http.Redirect(w, r, "/link-account", http.StatusSeeOther)
	case form.OutcomeInvalid:
		h.render(w, http.StatusUnprocessableEntity, ctrl.Snapshot())
	default:
		h.render(w, http.StatusOK, ctrl.Snapshot())
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, status int, snap form.Snapshot) {
	data := authPageData(snap)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.WithError(err).Error("Failed to render auth form template")
	}
}

func authPageData(snap form.Snapshot) models.AuthPageData {
	data := models.AuthPageData{
		PageData: models.PageData{
			Page:     snap.Mode.String(),
			Title:    "Sign In - BankZest",
			SubTitle: "Sign In",
			Error:    snap.Message(),
		},
		Action:         "/sign-in",
		SubmitLabel:    "Sign In",
		SubmitDisabled: snap.SubmitDisabled,
		FooterText:     "Don't have an account?",
		FooterLink:     "/sign-up",
		FooterLabel:    "Sign Up",
	}
	if snap.Mode == schema.SignUp {
		data.Title = "Sign Up - BankZest"
		data.SubTitle = "Sign Up"
		data.Action = "/sign-up"
		data.SubmitLabel = "Create Account"
		data.FooterText = "Already have an account?"
		data.FooterLink = "/sign-in"
		data.FooterLabel = "Sign In"
	}

	for _, f := range schema.Build(snap.Mode).Visible() {
		meta := fieldLabels[f.Name]
		view := models.FieldView{
			Name:        f.Name,
			Label:       meta.label,
			Placeholder: meta.placeholder,
			Type:        "text",
			Value:       snap.Values[f.Name],
			Error:       snap.Errors[f.Name],
		}
		if f.Kind == schema.Secret {
			view.Type = "password"
			view.Value = ""
		}
		data.Fields = append(data.Fields, view)
	}
	return data
}
