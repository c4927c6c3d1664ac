package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

const unknownClient = "unknown"

var textPolicy = bluemonday.StrictPolicy()

// RequestMeta carries the client headers relevant to audit entries.
type RequestMeta struct {
	ForwardedFor string
	RealIP       string
	UserAgent    string
}

// ClientIP resolves the caller address: first X-Forwarded-For hop, then X-Real-IP,
// then the caller-supplied value, then "unknown".
func (m RequestMeta) ClientIP(supplied string) string {
	if forwarded := strings.TrimSpace(m.ForwardedFor); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(m.RealIP); real != "" {
		return real
	}
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		return supplied
	}
	return unknownClient
}

// ClientUserAgent resolves the user agent with the same precedence as ClientIP.
func (m RequestMeta) ClientUserAgent(supplied string) string {
	if agent := strings.TrimSpace(m.UserAgent); agent != "" {
		return agent
	}
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		return supplied
	}
	return unknownClient
}

// sanitizeText strips markup while keeping literal characters such as apostrophes.
func sanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

func validatePayload(validate *validator.Validate, payload interface{}) error {
	if validate == nil {
		return nil
	}
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Validation("invalid payload", err)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s failed %s", jsonFieldName(fieldErr), fieldErr.Tag()))
	}
	return apperror.Validation("invalid payload: "+strings.Join(fields, ", "), err)
}

func jsonFieldName(fieldErr validator.FieldError) string {
	if name := fieldErr.Field(); name != "" {
		return name
	}
	return fieldErr.Namespace()
}

// NewValidator builds a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// submittedChanges returns the body as the client sent it, or payload when no raw body is available.
func submittedChanges(raw json.RawMessage, payload interface{}) interface{} {
	if len(raw) > 0 && json.Valid(raw) {
		return raw
	}
	return payload
}

// submittedFields holds the top-level keys of a raw JSON object body.
type submittedFields map[string]json.RawMessage

func parseSubmittedFields(raw json.RawMessage) submittedFields {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields
}

// has reports whether key was sent. Without a raw body, non-zero values count as sent.
func (f submittedFields) has(key string, nonZero bool) bool {
	if f == nil {
		return nonZero
	}
	_, ok := f[key]
	return ok
}
