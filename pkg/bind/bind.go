// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shashiranjanraj/meetup/config"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// JSON decodes r.Body into dest and runs the validate tags.
// A malformed or oversized body returns (nil, err); rule failures return
// (errs, nil).
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return Struct(dest), nil
}

// ErrUnknownField is returned by JSONStrict for a key outside the
// allow-list.
var ErrUnknownField = errors.New("bind: field not allowed")

// JSONStrict is JSON for partial updates: every top-level key of the body
// must be in allowed.
func JSONStrict(r *http.Request, dest interface{}, allowed ...string) (map[string]string, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes()))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	for k := range keys {
		if !contains(allowed, k) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Struct(dest), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Struct validates an already populated value. A nil map means valid.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + unit(fe)
	case "max":
		return "must be at most " + fe.Param() + unit(fe)
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return "must have exactly " + fe.Param() + " items"
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "datetime":
		return "must be an RFC 3339 date-time"
	case "eq":
		return "must be " + fe.Param()
	default:
		return "failed " + fe.Tag() + " rule"
	}
}

func unit(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		return " items"
	default:
		return ""
	}
}
