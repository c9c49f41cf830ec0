package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nhatro/backend/internal/domain/rental"
)

// RegisterCustomValidators wires domain value formats into gin's binding
// validator. Call once at startup before serving requests.
func RegisterCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("billingmonth", validBillingMonth)
	}
}

// validBillingMonth accepts "MM-YYYY" months, e.g. "08-2026"
func validBillingMonth(fl validator.FieldLevel) bool {
	_, err := rental.ParseBillingMonth(fl.Field().String())
	return err == nil
}
