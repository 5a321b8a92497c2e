package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidParams marks caller-correctable parameter problems. Messages are
// shown to users verbatim so they stay short and specific.
var ErrInvalidParams = errors.New("INVALID_PARAMS")

type ParamError struct {
	Message string
}

func (e *ParamError) Error() string { return e.Message }

func (e *ParamError) Unwrap() error { return ErrInvalidParams }

func Invalid(format string, args ...interface{}) error {
	return &ParamError{Message: fmt.Sprintf(format, args...)}
}

// IsParamError reports whether err was produced by parameter validation.
func IsParamError(err error) bool {
	return errors.Is(err, ErrInvalidParams)
}

// Has reports whether key is present with a non-nil value.
func Has(params map[string]interface{}, key string) bool {
	v, ok := params[key]
	return ok && v != nil
}

// Require returns the trimmed string form of params[key], or an error with
// missingMsg when the key is absent.
func Require(params map[string]interface{}, key, missingMsg string) (string, error) {
	if !Has(params, key) {
		return "", Invalid("%s", missingMsg)
	}
	return Stringify(params[key]), nil
}

// Optional returns the trimmed string form of params[key] when present.
func Optional(params map[string]interface{}, key string) (string, bool) {
	if !Has(params, key) {
		return "", false
	}
	return Stringify(params[key]), true
}

// Stringify renders a scalar parameter as trimmed text.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// LengthBetween checks the rune length of value.
func LengthBetween(value string, min, max int) bool {
	n := len([]rune(value))
	return n >= min && n <= max
}

// OneOf lower-cases value and checks it against allowed.
func OneOf(value string, allowed []string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	return v, contains(allowed, v)
}

// Int coerces integers, integral floats and numeric strings.
func Int(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%v is not a whole number", t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}

// EmailList splits a comma-separated list (or a JSON array) into lower-cased
// addresses, rejecting the first malformed one.
func EmailList(v interface{}, label string) ([]string, error) {
	var raw []string
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			raw = append(raw, Stringify(item))
		}
	case []string:
		raw = t
	default:
		raw = strings.Split(Stringify(v), ",")
	}

	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if !ValidateEmail(addr) {
			return nil, Invalid("Invalid %s email format: %s", label, addr)
		}
		out = append(out, addr)
	}
	return out, nil
}

// Alias copies params[from] to params[to] when only from is set. The input
// map is never modified.
func Alias(params map[string]interface{}, from, to string) map[string]interface{} {
	if Has(params, to) || !Has(params, from) {
		return params
	}
	out := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[to] = params[from]
	return out
}
