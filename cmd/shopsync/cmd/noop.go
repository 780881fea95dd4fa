package cmd

import (
	"context"
	"encoding/json"

	"github.com/dbsmedya/shopsync/internal/schema"
)

// noopEmitter discards output. Used by commands that only inspect the
// remote schema.
type noopEmitter struct{}

func (noopEmitter) Schema(string, *schema.Schema, []string, string) error { return nil }
func (noopEmitter) Record(string, json.RawMessage) error                  { return nil }
func (noopEmitter) State(string, string) error                            { return nil }

// noopCheckpoints never remembers anything.
type noopCheckpoints struct{}

func (noopCheckpoints) GetCheckpoint(context.Context, string) (string, error) { return "", nil }
func (noopCheckpoints) SetCheckpoint(context.Context, string, string) error   { return nil }
