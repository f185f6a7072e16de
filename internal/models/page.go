package models

type PageData struct {
	Page        string
	Title       string
	SubTitle    string
	CurrentUser UserSession
	Error       string
	Success     string
}

type FieldView struct {
	Name        string
	Label       string
	Placeholder string
	Type        string
	Value       string
	Error       string
}

type AuthPageData struct {
	PageData
	Action         string
	Fields         []FieldView
	SubmitLabel    string
	SubmitDisabled bool
	FooterText     string
	FooterLink     string
	FooterLabel    string
}

type FieldValidationResponse struct {
	Field                  string
	FieldValidationError   string
	FieldValidationSuccess string
	StrengthClass          string
	ShowFieldValidation    bool
}
