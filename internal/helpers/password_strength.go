package helpers

import passwordvalidator "github.com/wagslane/go-password-validator"

// PasswordEntropy estimates bits of entropy from the character pool and the length left
// after repeats and common sequences are discounted. It is advisory only; acceptance is
// decided by the form rules.
func PasswordEntropy(password string) float64 {
	return passwordvalidator.GetEntropy(password)
}

func GetPasswordStrengthLevel(entropy float64) (string, string) {
	switch {
	case entropy >= 80:
		return "Very Strong", "vs"
	case entropy >= 70:
		return "Strong", "s"
	case entropy >= 60:
		return "Moderate", "m"
	case entropy >= 50:
		return "Fair", "f"
	case entropy >= 40:
		return "Weak", "w"
	default:
		return "Very Weak", "vw"
	}
}
