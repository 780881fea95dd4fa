// Package emit writes the extraction output protocol: one schema message
// per entity, one record message per row, one state message per
// checkpoint, all as newline-delimited JSON.
package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dbsmedya/shopsync/internal/schema"
)

// Emitter is the downstream consumer of extracted data.
type Emitter interface {
	Schema(entity string, s *schema.Schema, keyProperties []string, bookmarkProperty string) error
	Record(entity string, data json.RawMessage) error
	State(entity, bookmark string) error
}

// Message types on the wire.
const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

type schemaMessage struct {
	Type             string         `json:"type"`
	Stream           string         `json:"stream"`
	Schema           *schema.Schema `json:"schema"`
	KeyProperties    []string       `json:"key_properties"`
	BookmarkProperty string         `json:"bookmark_property,omitempty"`
}

type recordMessage struct {
	Type   string          `json:"type"`
	Stream string          `json:"stream"`
	Record json.RawMessage `json:"record"`
}

type stateMessage struct {
	Type     string `json:"type"`
	Stream   string `json:"stream"`
	Bookmark string `json:"bookmark"`
}

// NDJSON writes protocol messages to a writer, one per line. Not safe for
// concurrent use; the extraction loop is single-threaded per run.
type NDJSON struct {
	enc *json.Encoder
}

// NewNDJSON creates an NDJSON emitter on the given writer.
func NewNDJSON(w io.Writer) *NDJSON {
	return &NDJSON{enc: json.NewEncoder(w)}
}

// Schema emits the record schema for an entity.
func (e *NDJSON) Schema(entity string, s *schema.Schema, keyProperties []string, bookmarkProperty string) error {
	if err := e.enc.Encode(schemaMessage{
		Type:             TypeSchema,
		Stream:           entity,
		Schema:           s,
		KeyProperties:    keyProperties,
		BookmarkProperty: bookmarkProperty,
	}); err != nil {
		return fmt.Errorf("failed to emit schema for %s: %w", entity, err)
	}
	return nil
}

// Record emits one extracted row.
func (e *NDJSON) Record(entity string, data json.RawMessage) error {
	if err := e.enc.Encode(recordMessage{
		Type:   TypeRecord,
		Stream: entity,
		Record: data,
	}); err != nil {
		return fmt.Errorf("failed to emit record for %s: %w", entity, err)
	}
	return nil
}

// State emits the latest incremental-key value seen for an entity.
func (e *NDJSON) State(entity, bookmark string) error {
	if err := e.enc.Encode(stateMessage{
		Type:     TypeState,
		Stream:   entity,
		Bookmark: bookmark,
	}); err != nil {
		return fmt.Errorf("failed to emit state for %s: %w", entity, err)
	}
	return nil
}
