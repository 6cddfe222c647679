package domain_test

import (
	"strings"
	"testing"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
)

func TestTaskNotFoundError(t *testing.T) {
	err := &domain.TaskNotFoundError{TaskID: "abc-123"}
	if !strings.Contains(err.Error(), "abc-123") {
		t.Errorf("error message should contain task ID, got: %q", err.Error())
	}
}

func TestInsufficientBalanceError(t *testing.T) {
	err := &domain.InsufficientBalanceError{Requested: 500, Balance: 42}
	msg := err.Error()
	if !strings.Contains(msg, "500") || !strings.Contains(msg, "42") {
		t.Errorf("error message should contain both amounts, got: %q", msg)
	}
}

func TestInvalidStepError(t *testing.T) {
	err := &domain.InvalidStepError{Want: "otp", Got: "documents"}
	msg := err.Error()
	if !strings.Contains(msg, "otp") || !strings.Contains(msg, "documents") {
		t.Errorf("error message should name both steps, got: %q", msg)
	}
}

func TestValidationError(t *testing.T) {
	err := &domain.ValidationError{Fields: []string{"ifsc", "holder_name"}}
	if got := err.Error(); got != "invalid fields: ifsc, holder_name" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAllErrorTypesImplementError(t *testing.T) {
	var _ error = &domain.TaskNotFoundError{}
	var _ error = &domain.SessionNotFoundError{}
	var _ error = &domain.InsufficientBalanceError{}
	var _ error = &domain.InvalidAmountError{}
	var _ error = &domain.InvalidOTPError{}
	var _ error = &domain.InvalidStepError{}
	var _ error = &domain.ValidationError{}
	var _ error = &domain.UnknownChannelError{}
}
