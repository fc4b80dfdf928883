// Package docstore is a small document-store client: schema-less documents
// addressed by collection and id, queried by field equality.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Op is a query filter operator.
type Op string

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Op = "=="
	// OpArrayContains matches documents whose array field contains the value.
	OpArrayContains Op = "array-contains"
)

// Filter restricts a query to documents matching one top-level field.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Where builds an equality filter.
func Where(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains builds an array-contains filter.
func ArrayContains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// SetOptions controls Set behaviour.
type SetOptions struct {
	// Merge keeps existing fields that are not present in the write.
	Merge bool
}

// Document is a stored document.
type Document struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Data       map[string]interface{} `json:"data"`
	CreateTime time.Time              `json:"create_time"`
	UpdateTime time.Time              `json:"update_time"`
}

// Store is the call contract of the remote document store.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]interface{}, opts SetOptions) error
	Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
}

type serverTimestamp struct{}

// ServerTimestamp is a field value that the store replaces with its own clock
// when the document is written.
var ServerTimestamp interface{} = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v interface{}) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// resolveTimestamps returns a copy of fields with every top-level ServerTimestamp
// replaced by now.
func resolveTimestamps(fields map[string]interface{}, now time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if IsServerTimestamp(v) {
			out[k] = now.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[k] = v
	}
	return out
}

// ToFields converts a JSON-tagged struct into document fields.
func ToFields(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return fields, nil
}

// DataTo decodes the document data into a JSON-tagged struct.
func (d *Document) DataTo(dst interface{}) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("marshal document data: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Int reads an integer field. Missing or non-numeric fields read as 0.
func (d *Document) Int(field string) int {
	if d == nil {
		return 0
	}
	switch v := d.Data[field].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
