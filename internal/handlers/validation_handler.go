package handlers

import (
	"context"
	"html/template"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/helpers"
	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/internal/schema"
	"github.com/zobayer1/bankzest/internal/templates"
)

type EmailChecker interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
}

// ValidationHandler answers live, per-field validation requests from the form. It only
// advises; the authoritative check runs again on submit.
type ValidationHandler struct {
	emails EmailChecker
	tmpl   *template.Template
}

func NewValidationHandler(emails EmailChecker) *ValidationHandler {
	return &ValidationHandler{
		emails: emails,
		tmpl:   templates.Partial("field_validation.html"),
	}
}

func (h *ValidationHandler) ValidateField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	mode, modeErr := schema.ParseMode(r.FormValue("mode"))
	if modeErr != nil {
		http.Error(w, modeErr.Error(), http.StatusBadRequest)
		return
	}
	field := r.FormValue("field")
	if !schema.IsField(field) {
		http.Error(w, "Unknown field", http.StatusBadRequest)
		return
	}
	value := r.FormValue("value")

	data := models.FieldValidationResponse{Field: field, ShowFieldValidation: true}
	if msg := schema.Build(mode).ValidateField(field, value, true); msg != "" {
		data.FieldValidationError = msg
		h.execute(w, "field-validation-error", data)
		return
	}

	if mode == schema.SignUp && field == schema.Email && h.emails != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		exists, err := h.emails.CheckEmailExists(ctx, value)
		if err != nil {
			log.WithError(err).Error("Failed to check email availability")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if exists {
			data.FieldValidationError = "Email is already registered"
			h.execute(w, "field-validation-error", data)
			return
		}
		data.FieldValidationSuccess = "Email is available"
		h.execute(w, "field-validation-success", data)
		return
	}

	if mode == schema.SignUp && field == schema.Password {
		text, class := helpers.GetPasswordStrengthLevel(helpers.PasswordEntropy(value))
		data.FieldValidationSuccess = text
		data.StrengthClass = "strength-" + class
		h.execute(w, "field-validation-success", data)
		return
	}

	data.FieldValidationSuccess = "Looks good"
	h.execute(w, "field-validation-success", data)
}

func (h *ValidationHandler) execute(w http.ResponseWriter, name string, data models.FieldValidationResponse) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.WithError(err).Error("Failed to render field validation template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
