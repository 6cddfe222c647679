// Package auth builds user profiles from sign-up and login forms and issues
// the bearer tokens that address a session. Credentials are never checked.
package auth

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
)

const defaultName = "MPK User"

// LoginForm is the body of a login request.
type LoginForm struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty,numeric,min=10,max=15"`
	Password string `json:"password" validate:"required"`
}

// SignupForm is the body of a sign-up request.
type SignupForm struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"required,numeric,min=10,max=15"`
	Password string `json:"password" validate:"required,min=6"`
	Referral string `json:"referral" validate:"omitempty,alphanum,max=16"`
}

// ReferralCode returns "MPK" followed by four random digits.
func ReferralCode() string {
	return fmt.Sprintf("MPK%d", 1000+rand.IntN(9000))
}

// NewProfile synthesizes a fresh profile with a zero balance.
func NewProfile(name, email, mobile string) domain.User {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}
	return domain.User{
		Name:         name,
		Email:        strings.TrimSpace(email),
		Mobile:       strings.TrimSpace(mobile),
		ReferralCode: ReferralCode(),
	}
}

// ProfileFromLogin builds a profile for a login; there is no stored account
// to load, so the name falls back to the default.
func ProfileFromLogin(f LoginForm) domain.User {
	return NewProfile("", f.Email, f.Mobile)
}

// ProfileFromSignup builds a profile for a new account.
func ProfileFromSignup(f SignupForm) domain.User {
	return NewProfile(f.Name, f.Email, f.Mobile)
}
