package http

import (
	"fmt"
	"log"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	uidPattern   = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,64}$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-() ]{3,32}$`)

	registerValidatorsOnce sync.Once
)

var customValidators = map[string]validator.Func{
	"uid": func(fl validator.FieldLevel) bool {
		return uidPattern.MatchString(fl.Field().String())
	},
	"phone": func(fl validator.FieldLevel) bool {
		phone := fl.Field().String()
		return phone == "" || phonePattern.MatchString(phone)
	},
}

// registerValidators adds the custom tags used in request structs to gin's
// validator engine. It panics if a tag cannot be registered.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Panicf("unexpected validator engine %T", binding.Validator.Engine())
		}
		if err := addValidations(v, customValidators); err != nil {
			log.Panicf("Failed to register validators: %v", err)
		}
	})
}

func addValidations(v *validator.Validate, funcs map[string]validator.Func) error {
	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uid":
		return "must be 1-64 letters, digits, dot, underscore or hyphen"
	case "phone":
		return "must be a phone number"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
