// Package query parses structured query requests and executes them against
// dataset collections.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"queryjam/internal/datastore"
)

// DefaultLimit bounds result pages when a request omits its own limit.
const DefaultLimit = 1000

// deniedOperators are rejected before a request ever reaches the store;
// they enable server-side code evaluation in document stores.
var deniedOperators = []string{"$where", "$function", "$accumulator"}

// ErrDeniedOperator marks requests containing a denylisted operator.
var ErrDeniedOperator = errors.New("query contains a disallowed operator")

// Request is a structured query: all fields optional, Mongo-object shaped.
type Request struct {
	Filter     map[string]any
	Projection map[string]any
	Sort       []datastore.SortKey
	Limit      int
	Skip       int
}

// ValidateText checks the raw serialization against the operator denylist.
// It runs on the text, not the parsed tree, so nested occurrences are caught
// regardless of where they hide.
func ValidateText(text string) error {
	for _, op := range deniedOperators {
		if strings.Contains(text, op) {
			return fmt.Errorf("%w: %s", ErrDeniedOperator, op)
		}
	}
	return nil
}

type rawRequest struct {
	Filter     map[string]any  `json:"filter"`
	Projection map[string]any  `json:"projection"`
	Sort       json.RawMessage `json:"sort"`
	Limit      *int            `json:"limit"`
	Skip       *int            `json:"skip"`
}

// ParseRequest decodes the request text and applies defaults: match-all
// filter, all fields, store order, skip 0. defaultLimit is used when the
// text omits its own limit; non-positive falls back to DefaultLimit.
func ParseRequest(text string, defaultLimit int) (Request, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	var raw rawRequest
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Request{}, fmt.Errorf("parse query: %w", err)
	}

	req := Request{
		Filter:     raw.Filter,
		Projection: raw.Projection,
		Limit:      defaultLimit,
	}
	if raw.Limit != nil && *raw.Limit != 0 {
		if *raw.Limit < 0 {
			return Request{}, fmt.Errorf("limit must be positive, got %d", *raw.Limit)
		}
		req.Limit = *raw.Limit
	}
	if raw.Skip != nil {
		if *raw.Skip < 0 {
			return Request{}, fmt.Errorf("skip cannot be negative, got %d", *raw.Skip)
		}
		req.Skip = *raw.Skip
	}

	if len(raw.Sort) > 0 {
		keys, err := parseSortSpec(raw.Sort)
		if err != nil {
			return Request{}, err
		}
		req.Sort = keys
	}
	return req, nil
}

// parseSortSpec reads a {"field": 1|-1, ...} object with a token decoder so
// key order in the JSON text is preserved.
func parseSortSpec(raw json.RawMessage) ([]datastore.SortKey, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse sort: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("sort must be an object of field: direction pairs")
	}

	var keys []datastore.SortKey
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse sort key: %w", err)
		}
		field, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("sort keys must be field names")
		}
		var dir float64
		if err := dec.Decode(&dir); err != nil {
			return nil, fmt.Errorf("sort direction for %q must be 1 or -1", field)
		}
		keys = append(keys, datastore.SortKey{Field: field, Desc: dir < 0})
	}
	return keys, nil
}
