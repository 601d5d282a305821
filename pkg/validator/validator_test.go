package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type ticketPayload struct {
	Subject  string `json:"subject" validate:"notblank,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(ticketPayload{
		Subject:  "Printer offline",
		Email:    "owner@example.com",
		Priority: "high",
	}))
}

func TestValidateStructFailures(t *testing.T) {
	err := ValidateStruct(ticketPayload{
		Subject:  "   ",
		Email:    "invalid",
		Priority: "urgent",
	})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, failures, 3)

	tags := map[string]string{}
	for _, f := range failures {
		tags[f.Field] = f.Tag
	}
	require.Equal(t, "notblank", tags["subject"])
	require.Equal(t, "email", tags["email"])
	require.Equal(t, "oneof", tags["priority"])
}

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation("register_code", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) == 4
	}))

	type register struct {
		Code string `validate:"register_code"`
	}

	require.NoError(t, ValidateStruct(register{Code: "R001"}))
	require.Error(t, ValidateStruct(register{Code: "R1"}))
}
