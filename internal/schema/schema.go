package schema

import (
	"errors"
	"fmt"
	"strings"
)

type Mode int

const (
	SignIn Mode = iota
	SignUp
)

var ErrUnknownMode = errors.New("unknown form mode")

func (m Mode) String() string {
	switch m {
	case SignIn:
		return "sign-in"
	case SignUp:
		return "sign-up"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the path-style names used in URLs ("sign-in", "sign-up").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sign-in", "signin":
		return SignIn, nil
	case "sign-up", "signup":
		return SignUp, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

const (
	FirstName   = "firstName"
	LastName    = "lastName"
	Address1    = "address1"
	City        = "city"
	State       = "state"
	PostalCode  = "postalCode"
	DateOfBirth = "dateOfBirth"
	SSN         = "ssn"
	Email       = "email"
	Password    = "password"
)

// fieldOrder is the order fields are rendered and validated in.
var fieldOrder = []string{
	FirstName, LastName, Address1, City, State, PostalCode, DateOfBirth, SSN, Email, Password,
}

// Fields returns every field name known to the form, in form order.
func Fields() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

func IsField(name string) bool {
	for _, f := range fieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

type Kind int

const (
	Text Kind = iota
	Secret
)

type FieldSpec struct {
	Name       string
	Kind       Kind
	Constraint Constraint
}

// Values maps field name to raw input. A missing key means the field was not supplied.
type Values map[string]string

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// FieldErrors maps field name to a user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) Clone() FieldErrors {
	if len(e) == 0 {
		return nil
	}
	out := make(FieldErrors, len(e))
	for k, msg := range e {
		out[k] = msg
	}
	return out
}

// Schema is the constraint table for one mode. It is never mutated after Build.
type Schema struct {
	mode   Mode
	fields []FieldSpec
	index  map[string]int
}

// Build returns the constraint table for mode. It is pure: the same mode always yields an
// equivalent schema.
func Build(mode Mode) Schema {
	profile := func(r Rule) Constraint {
		if mode == SignIn {
			return Optional()
		}
		return Required(r)
	}

	fields := []FieldSpec{
		{Name: FirstName, Kind: Text, Constraint: profile(Rule{Min: 1})},
		{Name: LastName, Kind: Text, Constraint: profile(Rule{Min: 1})},
		{Name: Address1, Kind: Text, Constraint: profile(Rule{Max: 70})},
		{Name: City, Kind: Text, Constraint: profile(Rule{Max: 30})},
		{Name: State, Kind: Text, Constraint: profile(Rule{Min: 2, Max: 5})},
		{Name: PostalCode, Kind: Text, Constraint: profile(Rule{Min: 3, Max: 6})},
		{Name: DateOfBirth, Kind: Text, Constraint: profile(Rule{Min: 4})},
		{Name: SSN, Kind: Text, Constraint: profile(Rule{Min: 3})},
		{Name: Email, Kind: Text, Constraint: Required(Rule{Email: true})},
		{Name: Password, Kind: Secret, Constraint: Required(Rule{
			Min:        8,
			MinMessage: "Password must be at least 8 characters long.",
		})},
	}

	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return Schema{mode: mode, fields: fields, index: index}
}

func (s Schema) Mode() Mode { return s.mode }

// Specs returns a copy of the field table in form order.
func (s Schema) Specs() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s Schema) Spec(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Visible lists the fields the form shows for the mode. Sign-in only asks for
// credentials; the optional profile fields are accepted but not rendered.
func (s Schema) Visible() []FieldSpec {
	if s.mode == SignUp {
		return s.Specs()
	}
	var out []FieldSpec
	for _, f := range s.fields {
		if f.Name == Email || f.Name == Password {
			out = append(out, f)
		}
	}
	return out
}

// ValidateField checks a single field. present is false when the field was not
// supplied at all. It returns the empty string when the value is accepted.
func (s Schema) ValidateField(name, value string, present bool) string {
	spec, ok := s.Spec(name)
	if !ok {
		return ""
	}
	return spec.Constraint.Check(value, present)
}

// Validate checks every field of the schema against values and returns the failures.
// The result is nil when all fields pass.
func (s Schema) Validate(values Values) FieldErrors {
	var errs FieldErrors
	for _, f := range s.fields {
		value, present := values[f.Name]
		if msg := f.Constraint.Check(value, present); msg != "" {
			if errs == nil {
				errs = make(FieldErrors)
			}
			errs[f.Name] = msg
		}
	}
	return errs
}
