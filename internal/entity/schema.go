// Package entity provides the self-validating base for persisted domain
// objects: the shared identity/timestamp contract and two-phase schema
// validation (parent contract plus a per-type child schema) with strict
// rejection of undeclared keys.
package entity

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"user-session-api/internal/apperr"
)

// Rule is the constraint for one declared payload key.
type Rule struct {
	// Required fails validation when the key is absent or nil.
	Required bool
	// Check reports whether a present value satisfies the constraint.
	// nil means any value is accepted.
	Check func(v any) bool
}

// Schema declares the accepted keys of a payload and the rule each key
// must satisfy. Keys not declared in a schema are rejected in strict mode.
type Schema map[string]Rule

// ParentSchema is the identity/timestamp contract every entity shares:
// id optional positive integer, uuid required v4 string, createdAt
// required positive epoch-millisecond integer.
func ParentSchema() Schema {
	return Schema{
		"id":        {Check: IsPositiveInt},
		"uuid":      {Required: true, Check: IsUUIDv4},
		"createdAt": {Required: true, Check: IsPositiveInt},
	}
}

// ValidateParent checks the identity fields of a fully-assembled entity
// payload. Unknown keys are permitted here: the assembled object
// legitimately carries the child's own fields.
func ValidateParent(candidate map[string]any) error {
	return run(candidate, ParentSchema(), false, true)
}

// ValidateStrict checks an incoming raw payload against the union of the
// parent and child schemas, rejecting any key declared in neither. Parent
// keys are optional at this phase (a create payload carries none of them);
// their presence and validity on the assembled object is ValidateParent's
// job. Child Required rules are enforced.
//
// Non-object candidates (nil, arrays, scalars) fail deterministically.
func ValidateStrict(candidate any, child Schema) error {
	obj, err := asObject(candidate)
	if err != nil {
		return err
	}
	merged := make(Schema, len(child)+3)
	for key, rule := range ParentSchema() {
		rule.Required = false
		merged[key] = rule
	}
	for key, rule := range child {
		merged[key] = rule
	}
	return run(obj, merged, true, true)
}

// run evaluates obj against schema. strict rejects undeclared keys;
// enforceRequired fails on absent Required keys. Every offending key is
// collected so the error names them all.
func run(obj map[string]any, schema Schema, strict, enforceRequired bool) error {
	bad := make(map[string]struct{})
	for key, rule := range schema {
		v, present := obj[key]
		if !present || v == nil {
			if rule.Required && enforceRequired {
				bad[key] = struct{}{}
			}
			continue
		}
		if rule.Check != nil && !rule.Check(v) {
			bad[key] = struct{}{}
		}
	}
	if strict {
		for key := range obj {
			if _, declared := schema[key]; !declared {
				bad[key] = struct{}{}
			}
		}
	}
	if len(bad) == 0 {
		return nil
	}
	keys := make([]string, 0, len(bad))
	for key := range bad {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return apperr.Validation("Problematic keys: %s", strings.Join(keys, ", "))
}

// asObject coerces candidate to a key/value object. Anything else — nil,
// arrays, scalars — cannot name a single offending key, so it fails with
// the generic type-mismatch message.
func asObject(candidate any) (map[string]any, error) {
	if candidate == nil {
		return nil, apperr.Validation("Payload must be an object, got nothing")
	}
	obj, ok := candidate.(map[string]any)
	if !ok {
		return nil, apperr.Validation("Payload must be an object, got %T", candidate)
	}
	return obj, nil
}

// IsPositiveInt accepts integral values greater than zero. JSON numbers
// decode as float64, so integral floats are accepted too.
func IsPositiveInt(v any) bool {
	n, ok := AsInt64(v)
	return ok && n > 0
}

// IsNonNegativeInt accepts integral values greater than or equal to zero.
func IsNonNegativeInt(v any) bool {
	n, ok := AsInt64(v)
	return ok && n >= 0
}

// IsUUIDv4 accepts canonical v4 UUID strings.
func IsUUIDv4(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4
}

// IsNonEmptyString accepts strings with at least one character.
func IsNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

// AsInt64 converts the numeric representations a payload may carry into
// an int64. Floats must be integral.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
