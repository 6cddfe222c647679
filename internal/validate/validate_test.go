package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/internal/validate"
)

func TestStruct_Valid(t *testing.T) {
	err := validate.Struct(domain.BankDetails{
		AccountNumber: "123456789012",
		IFSC:          "SBIN0001234",
		HolderName:    "Ravi Kumar",
	})
	require.NoError(t, err)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := validate.Struct(domain.BankDetails{AccountNumber: "12ab"})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "got %T", err)
	assert.ElementsMatch(t, []string{"account_number", "ifsc", "holder_name"}, verr.Fields)
}
