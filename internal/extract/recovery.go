package extract

import (
	"context"
	"fmt"

	"github.com/dbsmedya/shopsync/internal/discover"
	"github.com/dbsmedya/shopsync/internal/gql"
	"github.com/dbsmedya/shopsync/internal/logger"
	"github.com/dbsmedya/shopsync/internal/query"
	"github.com/dbsmedya/shopsync/internal/schema"
)

// entitySync is the mutable context of one entity's interactive sync:
// the current schema (replaced wholesale on every prune), the rendered
// document, and the variables of the request being recovered.
type entitySync struct {
	entity *discover.Entity
	schema *schema.Schema
	doc    string
	vars   map[string]interface{}
}

// recover interprets the field-level errors of a response. Pruning
// derives a new schema copy, swaps the stored reference, rebuilds the
// document and replays the same logical request with the same cursor;
// this repeats until the response is clean, so several fields can be
// pruned in one response cycle without resurrecting earlier prunes.
//
// Returns the clean response, or abandon=true when the entity should
// yield no further rows this run, or an error for fatal conditions.
func (s *Service) recover(ctx context.Context, log *logger.Logger, es *entitySync, resp *gql.Response) (*gql.Response, bool, error) {
	for resp.HasErrors() {
		respErr := resp.Errors[0]
		path := respErr.FieldPath()
		code := respErr.Code()

		if !s.cfg.IgnoreAccessDenied {
			return nil, false, s.fatal(es.entity, respErr)
		}

		switch {
		case code == gql.CodeAccessDenied && len(path) == 1:
			// No access to the endpoint itself.
			log.Errorw("Entity not accessible, skipping for this run",
				"path", respErr.Path,
				"error", respErr.Message,
			)
			return nil, true, nil

		case code == gql.CodeAccessDenied && len(path) > 1:
			if err := s.prune(es, path); err != nil {
				return nil, false, err
			}
			log.Warnw("Pruned inaccessible field, replaying request",
				"field", path[len(path)-1],
				"error", respErr.Message,
			)

		case code == gql.CodeMissingRequiredArgs:
			log.Errorw("Missing required arguments, skipping entity for this run",
				"error", respErr.Message,
			)
			return nil, true, nil

		case len(path) > 1:
			// Field-scoped error of another kind: treated like access denied.
			if err := s.prune(es, path); err != nil {
				return nil, false, err
			}
			log.Warnw("Pruned field after non-access error, replaying request",
				"field", path[len(path)-1],
				"code", code,
				"error", respErr.Message,
			)

		case len(path) == 1:
			log.Errorw("Top-level field error, skipping entity for this run",
				"path", respErr.Path,
				"code", code,
				"error", respErr.Message,
			)
			return nil, true, nil

		default:
			// No usable path to prune.
			return nil, false, s.fatal(es.entity, respErr)
		}

		replayed, err := s.client.Execute(ctx, es.doc, es.vars)
		if err != nil {
			return nil, false, err
		}
		resp = replayed
	}

	return resp, false, nil
}

// prune swaps the sync's schema for a copy without the offending field
// and rebuilds the query document. A pruned top-level field also leaves
// the entity's selected set, so it cannot reappear within the run.
func (s *Service) prune(es *entitySync, path []string) error {
	es.schema = schema.Prune(es.schema, path)
	if len(path) == 2 {
		es.entity.Deselect(path[1])
	}
	es.doc = query.Paged(es.entity, es.schema)
	return nil
}

// fatal logs an unrecoverable response error with entity, offending path
// and error code, and returns it wrapped.
func (s *Service) fatal(e *discover.Entity, respErr gql.ResponseError) error {
	s.log.Errorw("Unrecoverable field error",
		"entity", e.Name,
		"path", respErr.Path,
		"code", respErr.Code(),
		"error", respErr.Message,
	)
	return fmt.Errorf("unrecoverable error on %s (code %q, path %v): %s",
		e.Name, respErr.Code(), respErr.Path, respErr.Message)
}
