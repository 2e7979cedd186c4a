package purchasing

import (
	"errors"
	"reflect"
	"strings"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return purchasing.OrderStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("attachment_type", func(fl validator.FieldLevel) bool {
		return purchasing.AttachmentType(fl.Field().String()).IsValid()
	})
	return v
}

// validateRequest runs struct validation and converts failures into a
// VALIDATION_ERROR carrying one detail per offending field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.NewValidationError("invalid request: %v", err)
	}

	first := fieldErrs[0]
	domainErr := shared.NewValidationError("%s: %s", fieldPath(first), validationMessage(first))
	for _, fe := range fieldErrs {
		domainErr = domainErr.WithDetail(fieldPath(fe), validationMessage(fe))
	}
	return domainErr
}

// fieldPath drops the struct name from the namespace: Items[0].quantity_received
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "order_status":
		return "is not a valid order status"
	case "attachment_type":
		return "is not a valid attachment type"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
