package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("resource_id", func(fl validator.FieldLevel) bool {
			return resourceIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("workspace_host", func(fl validator.FieldLevel) bool {
			host := strings.TrimSpace(fl.Field().String())
			if host == "" {
				return false
			}
			if !strings.Contains(host, "://") {
				host = "https://" + host
			}
			parsed, err := url.Parse(host)
			if err != nil {
				return false
			}
			scheme := strings.ToLower(parsed.Scheme)
			return (scheme == "https" || scheme == "http") && parsed.Host != ""
		})

		// Workspace paths are absolute and never contain parent references.
		_ = v.RegisterValidation("workspace_path", func(fl validator.FieldLevel) bool {
			path := fl.Field().String()
			if !strings.HasPrefix(path, "/") || strings.Contains(path, "\x00") {
				return false
			}
			for _, part := range strings.Split(path, "/") {
				if part == ".." {
					return false
				}
			}
			return true
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// ValidateStruct runs the shared validator over v and returns the first
// violation as a ValidationError.
func ValidateStruct(v any) error {
	return convertValidationError(validatorInstance().Struct(v))
}

// convertValidationError normalizes validator errors into validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return apperrors.NewValidationError(field, msg, err)
	}

	return apperrors.NewValidationError("config", err.Error(), err)
}

// yamlishFieldName turns "Config.SQL.TimeoutSeconds" into "sql.timeout_seconds".
func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = snakeCase(part)
	}
	return strings.Join(parts, ".")
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
