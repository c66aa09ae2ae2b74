package validation

import (
	"errors"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Character classes used by the password rules. Commas and pipes are tag
// separators in validator, so they travel hex-escaped.
const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()-_=+[]{};:'\"<>.?/\\`~0x2C0x7C"
	spaceChars   = " \t\r\n\v\f"
)

var (
	pwValidate     *validator.Validate
	pwValidateOnce sync.Once
)

func passwordValidator() *validator.Validate {
	pwValidateOnce.Do(func() { pwValidate = validator.New() })
	return pwValidate
}

// PasswordPolicy is the set of rules a plaintext password must satisfy.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		MaxLength:      64,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// Rules returns the validator tags of the policy in reporting order.
func (p PasswordPolicy) Rules() []string {
	var rules []string
	if p.MinLength > 0 {
		rules = append(rules, "min="+strconv.Itoa(p.MinLength))
	}
	if p.MaxLength > 0 {
		rules = append(rules, "max="+strconv.Itoa(p.MaxLength))
	}
	if p.RequireUpper {
		rules = append(rules, "containsany="+upperChars)
	}
	if p.RequireLower {
		rules = append(rules, "containsany="+lowerChars)
	}
	if p.RequireDigit {
		rules = append(rules, "containsany="+digitChars)
	}
	if p.RequireSpecial {
		rules = append(rules, "containsany="+specialChars)
	}
	return append(rules, "excludesall="+spaceChars)
}

// Check returns every rule pw breaks. An empty result means pw is acceptable.
func (p PasswordPolicy) Check(pw string) []string {
	v := passwordValidator()
	var violations []string
	for _, rule := range p.Rules() {
		err := v.Var(pw, rule)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			violations = append(violations, err.Error())
			continue
		}
		for _, fe := range verrs {
			violations = append(violations, formatFieldError(fe))
		}
	}
	return violations
}

func (p PasswordPolicy) Valid(pw string) bool { return len(p.Check(pw)) == 0 }

// Evaluate reports whether pw is acceptable together with every broken rule.
func (p PasswordPolicy) Evaluate(pw string) (bool, []string) {
	v := p.Check(pw)
	return len(v) == 0, v
}
