package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcash/mcash-api/internal/pkg/money"
)

// Validator instance
var validate *validator.Validate

// PhonePattern matches Bangladeshi mobile numbers with an optional +88 prefix.
var PhonePattern = regexp.MustCompile(`^(\+88)?01[3-9]\d{8}$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("bdphone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})

	// Self-service registration may only create wallet holders.
	validate.RegisterValidation("signup_role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "USER", "AGENT":
			return true
		}
		return false
	})

	// money_min / money_max take a decimal bound in major units, e.g. money_min=10.
	validate.RegisterValidation("money_min", func(fl validator.FieldLevel) bool {
		bound, ok := moneyParam(fl.Param())
		return ok && fl.Field().Int() >= int64(bound)
	})
	validate.RegisterValidation("money_max", func(fl validator.FieldLevel) bool {
		bound, ok := moneyParam(fl.Param())
		return ok && fl.Field().Int() <= int64(bound)
	})
}

func moneyParam(p string) (money.Amount, bool) {
	a, err := money.Parse(p)
	return a, err == nil
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "oneof":
			errors[field] = "Must be one of: " + err.Param()
		case "uuid":
			errors[field] = "Invalid identifier"
		case "bdphone":
			errors[field] = "Please provide a valid Bangladeshi phone number"
		case "signup_role":
			errors[field] = "Invalid role. Must be: USER or AGENT"
		case "money_min":
			errors[field] = "Minimum amount is " + err.Param()
		case "money_max":
			errors[field] = "Maximum amount is " + err.Param()
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
