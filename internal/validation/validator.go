package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator. Field names in errors follow the JSON
// tags, and decimal fields compare as numbers.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})

	_ = v.RegisterValidation("catalog_id", func(fl validatorv10.FieldLevel) bool {
		n, err := strconv.ParseInt(fl.Field().String(), 10, 64)
		return err == nil && n > 0
	})

	// quantities are checked on the exact decimal, not the float view
	v.RegisterStructValidation(checkoutLineStructValidation, CheckoutLine{})

	return v
}

func checkoutLineStructValidation(sl validatorv10.StructLevel) {
	line := sl.Current().Interface().(CheckoutLine)
	if !line.Quantity.IsPositive() {
		sl.ReportError(line.Quantity, "quantity", "Quantity", "positive", "")
	}
}

// Describe renders a validation error as one readable sentence.
func Describe(err error) string {
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok || len(ve) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validatorv10.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "positive":
		return fmt.Sprintf("%s must be greater than 0", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "catalog_id":
		return fmt.Sprintf("%s must be a catalog id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
