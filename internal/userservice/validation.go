package userservice

import (
	"regexp"

	"github.com/sushihentaime/nanoblog/internal/common"
)

var (
	EmailRX     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	UsernameRX  = regexp.MustCompile(`^[a-zA-Z0-9_@+\-]+$`)
	UppercaseRX = regexp.MustCompile("[A-Z]")
	LowercaseRX = regexp.MustCompile("[a-z]")
	NumberRX    = regexp.MustCompile("[0-9]")
	SymbolRX    = regexp.MustCompile(`[#?!@$%^&*_\\-]`)
	TokenRX     = regexp.MustCompile(`^[A-Z2-7]{26}$`)
)

func validateName(v *common.Validator, name, field string) {
	v.Check(name != "", field, "must be provided")
	v.Check(v.CheckStringLength(name, 1, 20), field, "must not be more than 20 characters long")
}

func validateUsername(v *common.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 3, 20), "username", "must be between 3 and 20 characters long")
	v.Check(UsernameRX.MatchString(username), "username", "must only contain letters, numbers and _ @ + -")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(v.CheckStringLength(email, 1, 40), "email", "must not be more than 40 characters long")
	v.Check(EmailRX.MatchString(email), "email", "must be a valid email address")
}

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password1", "must be provided")
	v.Check(len(password) <= maxPasswordBytes, "password1", "must not be more than 72 bytes long")

	value := v.CheckStringLength(password, 8, 72) && UppercaseRX.MatchString(password) && LowercaseRX.MatchString(password) && NumberRX.MatchString(password) && SymbolRX.MatchString(password)
	v.Check(value, "password1", "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol")
}

func validatePasswordConfirmation(v *common.Validator, password1, password2 string) {
	v.Check(password2 != "", "password2", "must be provided")
	v.Check(password1 == password2, "password2", "passwords did not match")
}

// ValidateRegistration checks the registration fields without touching the database.
func ValidateRegistration(v *common.Validator, in RegisterInput) {
	validateName(v, in.FirstName, "first_name")
	validateName(v, in.LastName, "last_name")
	validateEmail(v, in.Email)
	validateUsername(v, in.Username)
	validatePassword(v, in.Password1)
	validatePasswordConfirmation(v, in.Password1, in.Password2)
}

// ValidateToken checks that token has the shape of a plain token issued by newToken.
func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(TokenRX.MatchString(token), "token", "invalid token")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
