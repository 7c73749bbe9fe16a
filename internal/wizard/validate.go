package wizard

import "github.com/go-playground/validator/v10"

// Validity is tri-state so error styling only appears once a field has been
// touched.
type Validity int

const (
	Unset Validity = iota
	Valid
	Invalid
)

var validate = validator.New()

// ValidName: any non-empty string.
func ValidName(name string) bool {
	return validate.Var(name, "required") == nil
}

// ValidPhone: exactly ten digits, the rule the booking backend enforces.
func ValidPhone(phone string) bool {
	return validate.Var(phone, "required,len=10,number") == nil
}

func validity(ok bool) Validity {
	if ok {
		return Valid
	}
	return Invalid
}
