package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/validate"
)

var referralPattern = regexp.MustCompile(`^MPK[1-9]\d{3}$`)

func TestReferralCode_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := ReferralCode()
		require.Regexp(t, referralPattern, code)
	}
}

func TestNewProfile_DefaultsName(t *testing.T) {
	u := NewProfile("  ", "a@b.com", "9876543210")
	assert.Equal(t, "MPK User", u.Name)
	assert.Equal(t, 0, u.Balance)
	assert.False(t, u.IsKycVerified)
	assert.False(t, u.IsFaceVerified)
	assert.Regexp(t, referralPattern, u.ReferralCode)
}

func TestProfileFromSignup(t *testing.T) {
	u := ProfileFromSignup(SignupForm{Name: "Ravi", Email: "ravi@example.com", Mobile: "9876543210"})
	assert.Equal(t, "Ravi", u.Name)
	assert.Equal(t, "ravi@example.com", u.Email)
}

func TestSignupForm_Validation(t *testing.T) {
	err := validate.Struct(SignupForm{Email: "not-an-email", Mobile: "12", Password: "x"})
	require.Error(t, err)

	ok := SignupForm{Name: "Ravi", Email: "ravi@example.com", Mobile: "9876543210", Password: "secret1"}
	require.NoError(t, validate.Struct(ok))
}

func TestLoginForm_Validation(t *testing.T) {
	require.Error(t, validate.Struct(LoginForm{Email: "a@b.com"}), "password is required")
	require.NoError(t, validate.Struct(LoginForm{Mobile: "9876543210", Password: "anything"}))
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	token, exp, err := iss.Issue("sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sid, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sid)
}

func TestIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewIssuer("a", time.Hour).Issue("sess-1")
	require.NoError(t, err)

	_, err = NewIssuer("b", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Expired(t *testing.T) {
	iss := NewIssuer("s", time.Minute)
	token, _, err := iss.Issue("sess-1")
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Garbage(t *testing.T) {
	_, err := NewIssuer("s", time.Minute).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
