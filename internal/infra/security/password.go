package security

import (
	"fmt"
	"unicode/utf8"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const maxZxcvbnScore = 4

// PasswordViolation reports why a new password was rejected before it reached the API.
type PasswordViolation struct {
	Code    string
	Message string
}

func (v *PasswordViolation) Error() string {
	if v == nil {
		return ""
	}
	return v.Message
}

// PasswordPolicy pre-checks password changes submitted through the console.
type PasswordPolicy struct {
	MinLength int
	MinScore  int
}

// NewPasswordPolicy builds a policy; a zero minScore disables the strength estimate.
func NewPasswordPolicy(minLength, minScore int) *PasswordPolicy {
	if minScore > maxZxcvbnScore {
		minScore = maxZxcvbnScore
	}
	return &PasswordPolicy{MinLength: minLength, MinScore: minScore}
}

// Validate checks password against the policy. userInputs (name, email, username) lower the
// strength score when the password contains them.
func (p *PasswordPolicy) Validate(password string, userInputs ...string) error {
	if p == nil {
		return nil
	}

	if p.MinLength > 0 && utf8.RuneCountInString(password) < p.MinLength {
		return &PasswordViolation{
			Code:    "min_length",
			Message: fmt.Sprintf("password must be at least %d characters long", p.MinLength),
		}
	}

	if p.MinScore > 0 {
		inputs := make([]string, 0, len(userInputs))
		for _, input := range userInputs {
			if input != "" {
				inputs = append(inputs, input)
			}
		}
		if result := zxcvbn.PasswordStrength(password, inputs); result.Score < p.MinScore {
			return &PasswordViolation{
				Code:    "weak_password",
				Message: "password is too weak; choose a more complex value",
			}
		}
	}

	return nil
}
