package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and timestamp fields shared by every
// persisted entity. ID is zero until the database assigns it; UUID and
// CreatedAt are always set after construction.
type Base struct {
	ID        int64
	UUID      string
	CreatedAt int64 // epoch milliseconds, set once at creation
}

// Validatable is implemented by every concrete entity type. ChildSchema
// declares the type's own fields; Update merges a partial payload and
// must re-validate the fully-merged candidate before returning.
type Validatable interface {
	ChildSchema() Schema
	Update(payload map[string]any) error
}

// Construct assembles the identity fields from a raw payload and runs
// both validation phases. UUID defaults to a fresh v4 and CreatedAt to
// the current epoch millis when the payload omits them (a create
// payload); a reconstruction payload supplies both. No value escapes a
// failed validation: an error means no Base was built.
func Construct(payload map[string]any, child Schema) (Base, error) {
	obj, err := asObject(payload)
	if err != nil {
		return Base{}, err
	}
	full := make(map[string]any, len(obj)+2)
	for key, v := range obj {
		full[key] = v
	}
	if _, ok := full["uuid"]; !ok {
		full["uuid"] = uuid.NewString()
	}
	if _, ok := full["createdAt"]; !ok {
		full["createdAt"] = time.Now().UnixMilli()
	}
	if err := ValidateParent(full); err != nil {
		return Base{}, err
	}
	if err := ValidateStrict(obj, child); err != nil {
		return Base{}, err
	}
	b := Base{
		UUID: full["uuid"].(string),
	}
	b.CreatedAt, _ = AsInt64(full["createdAt"])
	if id, ok := obj["id"]; ok {
		b.ID, _ = AsInt64(id)
	}
	return b, nil
}

// Fields returns the identity fields as a payload fragment, for merging
// into a full candidate before re-validation on update.
func (b *Base) Fields() map[string]any {
	m := map[string]any{
		"uuid":      b.UUID,
		"createdAt": b.CreatedAt,
	}
	if b.ID > 0 {
		m["id"] = b.ID
	}
	return m
}
