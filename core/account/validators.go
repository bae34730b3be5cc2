package account

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/slps/canteen/core"
)

var (
	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers the account struct validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(accountStructValidation, NewStudent{}, NewTeacher{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// accountStructValidation applies the password policy on NewStudent and NewTeacher structs.
func accountStructValidation(sl validator.StructLevel) {
	switch acc := sl.Current().Interface().(type) {
	case NewStudent:
		if acc.Password != "" {
			validatePassword(acc.Password, sl, acc.Name, acc.Email, acc.AdmissionID, acc.UserID)
		}
	case NewTeacher:
		if acc.Password != "" {
			validatePassword(acc.Password, sl, acc.Name, acc.Email, acc.StaffID)
		}
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no whitespace
// - no user attrs similarity
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}
	if tooSimilar(pwd, attrs...) {
		reportErr(pwdAttrSimTag)
	}
}

// CheckPasswordPolicy applies the password policy outside of struct validation (admin CLI).
func CheckPasswordPolicy(pwd string, attrs ...string) error {
	switch {
	case len([]rune(pwd)) < pwdMinLen:
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdMinLenText})
	case strings.IndexFunc(pwd, unicode.IsSpace) >= 0:
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdNoSpaceText})
	case tooSimilar(pwd, attrs...):
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdAttrSimText})
	}
	return nil
}

func tooSimilar(pwd string, attrs ...string) bool {
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		m := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, ""))
		if m.QuickRatio() >= pwdMaxSim && m.Ratio() >= pwdMaxSim {
			return true
		}
	}
	return false
}
