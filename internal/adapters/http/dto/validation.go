package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/audience-gateway/internal/domain"
)

var (
	// ErrValidation wraps validator failures on a bound request.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps malformed JSON bodies and query strings.
	ErrBinding = errors.New("binding failed")
)

// mergeTagPattern matches merge field tags such as FNAME or ADDR_2.
var mergeTagPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,9}$`)

var validatorInstance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)

	for tag, fn := range map[string]validator.Func{
		"member_status": func(fl validator.FieldLevel) bool {
			return domain.MemberStatus(fl.Field().String()).Writable()
		},
		"merge_tag": func(fl validator.FieldLevel) bool {
			return mergeTagPattern.MatchString(fl.Field().String())
		},
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s validation: %v", tag, err))
		}
	}

	return v
})

// Validator returns the shared validator with the gateway's custom tags.
func Validator() *validator.Validate {
	return validatorInstance()
}

// wireName reports fields by their json name, or form name for query
// structs, so error details match what the client sent.
func wireName(fld reflect.StructField) string {
	for _, key := range [...]string{"json", "form"} {
		switch name, _, _ := strings.Cut(fld.Tag.Get(key), ","); name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}

	return fld.Name
}

// Validate runs the shared validator over v.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v, then validates it.
func BindAndValidate(c *gin.Context, v any) error {
	return bindThenValidate(c.ShouldBindJSON, v)
}

// BindQueryAndValidate decodes the query string into v, then validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bindThenValidate(c.ShouldBindQuery, v)
}

func bindThenValidate(bind func(any) error, v any) error {
	if err := bind(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors returns field name to message for each validator failure
// in err. Other errors give an empty map.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}

	for _, fe := range fieldErrs {
		out[fe.Field()] = validationMessage(fe)
	}

	return out
}

var validationMessages = map[string]string{
	"required":      "this field is required",
	"email":         "must be a valid email address",
	"url":           "must be a valid URL",
	"gte":           "must be greater than or equal to {param}",
	"lte":           "must be less than or equal to {param}",
	"oneof":         "must be one of: {param}",
	"member_status": "must be one of: subscribed unsubscribed pending transactional",
	"merge_tag":     "merge tags are 1-10 uppercase letters, digits or underscores",
}

func validationMessage(fe validator.FieldError) string {
	switch tag := fe.Tag(); tag {
	case "min", "max":
		return minMaxMessage(tag, fe.Param(), fe.Type().Kind())
	default:
		if msg, ok := validationMessages[tag]; ok {
			return strings.ReplaceAll(msg, "{param}", fe.Param())
		}

		return "failed validation: " + tag
	}
}

func minMaxMessage(tag, param string, kind reflect.Kind) string {
	bound := "at most "
	if tag == "min" {
		bound = "at least "
	}

	switch kind {
	case reflect.String:
		return "must be " + bound + param + " characters"
	case reflect.Map, reflect.Slice:
		return "must be " + bound + param + " entries"
	default:
		return "must be " + bound + param
	}
}
