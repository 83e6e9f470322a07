package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("config validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their koanf key so messages match the YAML and env names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		return name
	})

	return v
}

// Validate checks struct constraints and the rules that span sections.
// The service must not start when it fails.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		for _, fe := range fieldErrs {
			problems = append(problems, formatFieldError(fe))
		}
	}

	problems = append(problems, c.crossChecks()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(problems, "\n  "))
}

// crossChecks covers rules struct tags cannot express.
func (c *Config) crossChecks() []string {
	var problems []string

	if c.Marketing.BaseURL != "" && c.App.Environment == "prod" {
		if u, err := url.Parse(c.Marketing.BaseURL); err == nil && u.Scheme != "https" {
			problems = append(problems, "marketing.base_url must use https in prod")
		}
	}

	if c.Client.Timeout > 0 && c.Server.WriteTimeout > 0 && c.Client.Timeout > c.Server.WriteTimeout {
		problems = append(problems, "client.timeout must not exceed server.write_timeout")
	}

	return problems
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.ToLower(e.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "contains":
		return fmt.Sprintf("%s must contain %q", field, e.Param())
	case "url":
		return field + " must be a valid URL"
	case "gtefield":
		return fmt.Sprintf("%s must be at least %s", field, siblingPath(field, e.Param()))
	case "ltefield":
		return fmt.Sprintf("%s must be at most %s", field, siblingPath(field, e.Param()))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath drops the root type from "Config.server.read_timeout".
func formatFieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return path
}

// siblingPath names the Go field param of a cross-field tag relative to
// field, e.g. client.retry.initial_interval for InitialInterval.
func siblingPath(field, goName string) string {
	i := strings.LastIndex(field, ".")
	if i < 0 {
		return toSnake(goName)
	}

	return field[:i] + "." + toSnake(goName)
}

func toSnake(s string) string {
	var b strings.Builder

	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}

			r += 'a' - 'A'
		}

		b.WriteRune(r)
	}

	return b.String()
}
