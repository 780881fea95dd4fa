// Package query renders GraphQL documents from record schemas, for both
// paged-connection and bulk-submission modes.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/shopsync/internal/discover"
	"github.com/dbsmedya/shopsync/internal/schema"
)

// pagedTemplate drives interactive extraction. Page size, cursor and the
// incremental filter travel as variables; static arguments are spliced in
// literally.
const pagedTemplate = `query ($first: Int, $after: String, $filter: String) {
  %s(first: $first, after: $after, query: $filter%s) {
    edges {
      node {%s
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// bulkTemplate submits the whole extraction as one asynchronous job.
// Filters are baked into the inner document because bulk submissions take
// no variables.
const bulkTemplate = `mutation {
  bulkOperationRunQuery(
    query: """
      {
        %s%s {
          edges {
            node {%s
            }
          }
        }
      }
    """
  ) {
    bulkOperation {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

// BulkStatusDocument polls the credential's current bulk operation.
const BulkStatusDocument = `query {
  currentBulkOperation {
    id
    status
    errorCode
    createdAt
    objectCount
    fileSize
    url
    partialDataUrl
  }
}`

// orderLineItemsFragment is the denormalized line-items sub-resource of
// orders. It cannot be derived by the generic denester (line items hide
// behind a paged connection), so a fixed selection is spliced in.
const orderLineItemsFragment = `
lineItems {
  edges {
    node {
      id
      name
      sku
      quantity
      requiresShipping
      taxable
      vendor
      originalTotalSet {
        shopMoney {
          amount
          currencyCode
        }
      }
      discountedTotalSet {
        shopMoney {
          amount
          currencyCode
        }
      }
    }
  }
}`

// lineItemsField is the orders property backed by the fixed fragment.
const lineItemsField = "lineItems"

// Paged renders the interactive query document for an entity.
func Paged(e *discover.Entity, s *schema.Schema) string {
	args := ""
	if len(e.StaticArgs) > 0 {
		args = ", " + strings.Join(e.StaticArgs, ", ")
	}
	return fmt.Sprintf(pagedTemplate, e.QueryName, args, selection(e, s))
}

// Bulk renders the bulk-submission document for an entity. Filters are
// comma-joined inside parentheses; with no filters the parentheses are
// omitted entirely.
func Bulk(e *discover.Entity, s *schema.Schema, filters []string) string {
	return fmt.Sprintf(bulkTemplate, e.QueryName, RenderFilters(filters), selection(e, s))
}

// Filters assembles the literal argument list for an entity: static
// required arguments first, then the incremental filter derived from the
// checkpoint.
func Filters(e *discover.Entity, start time.Time) []string {
	var out []string
	out = append(out, e.StaticArgs...)
	if e.ReplicationKey != "" && !start.IsZero() {
		out = append(out, fmt.Sprintf("query: %q", IncrementalFilter(start)))
	}
	return out
}

// IncrementalFilter renders the updated_at search term for a checkpoint.
func IncrementalFilter(start time.Time) string {
	return "updated_at:>" + start.UTC().Format("2006-01-02T15:04:05")
}

// RenderFilters joins filters into a parenthesized argument list, or the
// empty string when there is nothing to render.
func RenderFilters(filters []string) string {
	if len(filters) == 0 {
		return ""
	}
	return "(" + strings.Join(filters, ", ") + ")"
}

// selection renders the entity's selection set: the schema restricted to
// the selected fields (identity and incremental key are always kept by
// the descriptor), serialized in declaration order. The orders entity
// swaps its line-items property for the fixed fragment.
func selection(e *discover.Entity, s *schema.Schema) string {
	restricted := schema.Restrict(s, e.SelectedList())

	skip := map[string]bool{}
	if e.QueryName == "orders" {
		skip[lineItemsField] = true
	}

	rendered := renderObject(restricted, "        ", skip)

	if e.QueryName == "orders" {
		rendered += indentBlock(orderLineItemsFragment, "        ")
	}

	return rendered
}

// renderObject serializes an object schema into selection-set lines,
// `name { ... }` for object and array branches, bare `name` for leaves.
// Properties resolving to empty objects are dropped.
func renderObject(s *schema.Schema, indent string, skipTop map[string]bool) string {
	if s == nil || s.Properties == nil {
		return ""
	}

	var b strings.Builder
	for el := s.Properties.Front(); el != nil; el = el.Next() {
		if skipTop[el.Key] {
			continue
		}
		writeField(&b, el.Key, el.Value, indent)
	}
	return b.String()
}

func writeField(b *strings.Builder, name string, s *schema.Schema, indent string) {
	node := s
	for node != nil && node.Type == schema.TypeArray {
		node = node.Items
	}

	if node != nil && node.Type == schema.TypeObject {
		if node.Len() == 0 {
			return
		}
		b.WriteString("\n" + indent + name + " {")
		b.WriteString(renderObject(node, indent+"  ", nil))
		b.WriteString("\n" + indent + "}")
		return
	}

	b.WriteString("\n" + indent + name)
}

// indentBlock re-indents a fragment to sit inside the selection set.
func indentBlock(block, indent string) string {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString("\n" + indent + line)
	}
	return b.String()
}
