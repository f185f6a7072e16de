package schema

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	msgRequired     = "Required"
	msgInvalidEmail = "Invalid email"
)

// Rule is a purely syntactic check on a string value. Zero Min/Max mean unbounded.
type Rule struct {
	Min        int
	Max        int
	Email      bool
	MinMessage string
	MaxMessage string
}

func (r Rule) Check(value string) string {
	n := utf8.RuneCountInString(value)
	if r.Min > 0 && n < r.Min {
		if r.MinMessage != "" {
			return r.MinMessage
		}
		return fmt.Sprintf("String must contain at least %d character(s)", r.Min)
	}
	if r.Max > 0 && n > r.Max {
		if r.MaxMessage != "" {
			return r.MaxMessage
		}
		return fmt.Sprintf("String must contain at most %d character(s)", r.Max)
	}
	if r.Email && !IsEmail(value) {
		return msgInvalidEmail
	}
	return ""
}

// Constraint is either Optional or Required with a Rule.
type Constraint struct {
	required bool
	rule     Rule
}

func Optional() Constraint { return Constraint{} }

func Required(r Rule) Constraint { return Constraint{required: true, rule: r} }

func (c Constraint) IsRequired() bool { return c.required }

// Rule returns the rule of a Required constraint. ok is false for Optional.
func (c Constraint) Rule() (Rule, bool) { return c.rule, c.required }

// Check returns the failure message, or "" when the value is accepted.
func (c Constraint) Check(value string, present bool) string {
	if !c.required {
		return ""
	}
	if !present {
		return msgRequired
	}
	return c.rule.Check(value)
}

func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
