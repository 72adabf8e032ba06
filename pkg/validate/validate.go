package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Request bodies are validated against declarative per-field rule tables.
// Every rule runs and every failure is collected, so a response always lists
// the complete set of violations rather than the first one found.

var vld = validator.New()

// Violation is a single field-level failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// Check inspects a present value and returns a failure message, or "".
type Check func(value interface{}) string

// Rule binds a (possibly dotted) field path to its checks. Non-optional
// fields missing from the body fail with a single "is required" violation.
type Rule struct {
	Field    string
	Optional bool
	Checks   []Check
}

// Schema is the ordered rule table for one endpoint.
type Schema []Rule

// Apply evaluates every rule against the decoded JSON body and returns all
// violations.
func (s Schema) Apply(body map[string]interface{}) []Violation {
	var out []Violation
	for _, r := range s {
		v, present := lookup(body, r.Field)
		if !present || v == nil {
			if !r.Optional {
				out = append(out, Violation{Field: r.Field, Message: "is required"})
			}
			continue
		}
		for _, check := range r.Checks {
			if msg := check(v); msg != "" {
				out = append(out, Violation{Field: r.Field, Message: msg})
			}
		}
	}
	return out
}

// lookup resolves a dotted path ("location.lat") in nested JSON objects.
func lookup(body map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = body
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String requires a string value of at least min characters (after trimming).
func String(min int) Check {
	return func(v interface{}) string {
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		if len(strings.TrimSpace(s)) < min {
			return fmt.Sprintf("must be at least %d characters", min)
		}
		return ""
	}
}

// Email requires a syntactically valid email address.
func Email() Check {
	return func(v interface{}) string {
		s, ok := v.(string)
		if !ok || vld.Var(s, "required,email") != nil {
			return "must be a valid email address"
		}
		return ""
	}
}

// Phone requires a plausible mobile number (digits, optional leading +).
func Phone() Check {
	return func(v interface{}) string {
		s, ok := v.(string)
		if !ok {
			return "must be a valid phone number"
		}
		digits := strings.TrimPrefix(s, "+")
		if vld.Var(digits, "required,numeric,min=7,max=15") != nil {
			return "must be a valid phone number"
		}
		return ""
	}
}

// Float requires a JSON number within [min, max]. Pass nil to skip a bound.
func Float(min, max *float64) Check {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return "must be a number"
		}
		if min != nil && f < *min {
			return fmt.Sprintf("must be at least %v", *min)
		}
		if max != nil && f > *max {
			return fmt.Sprintf("must be at most %v", *max)
		}
		return ""
	}
}

// Enum requires the value to be one of the allowed strings.
func Enum(allowed ...string) Check {
	return func(v interface{}) string {
		s, ok := v.(string)
		if ok {
			for _, a := range allowed {
				if s == a {
					return ""
				}
			}
		}
		return "must be one of: " + strings.Join(allowed, ", ")
	}
}

// Bool requires a JSON boolean.
func Bool() Check {
	return func(v interface{}) string {
		if _, ok := v.(bool); !ok {
			return "must be a boolean"
		}
		return ""
	}
}

// Object requires a nested JSON object.
func Object() Check {
	return func(v interface{}) string {
		if _, ok := v.(map[string]interface{}); !ok {
			return "must be an object"
		}
		return ""
	}
}

// ISODate requires an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func ISODate() Check {
	return func(v interface{}) string {
		s, ok := v.(string)
		if !ok {
			return "must be a date string"
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return ""
		}
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return ""
		}
		return "must be an ISO 8601 date"
	}
}

// Bound is shorthand for taking the address of a literal bound.
func Bound(f float64) *float64 { return &f }
