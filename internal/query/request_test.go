package query

import (
	"errors"
	"testing"
)

func TestValidateTextRejectsDeniedOperators(t *testing.T) {
	for _, text := range []string{
		`{"filter": {"$where": "this.a > 1"}}`,
		`{"filter": {"a": {"$function": {}}}}`,
		`{"filter": {"nested": {"deep": {"$accumulator": 1}}}}`,
	} {
		if err := ValidateText(text); !errors.Is(err, ErrDeniedOperator) {
			t.Fatalf("ValidateText(%q): expected ErrDeniedOperator, got %v", text, err)
		}
	}
	if err := ValidateText(`{"filter": {"a": {"$gt": 1}}}`); err != nil {
		t.Fatalf("valid text rejected: %v", err)
	}
}

func TestParseRequestDefaults(t *testing.T) {
	req, err := ParseRequest(`{}`, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, req.Limit)
	}
	if req.Skip != 0 || req.Filter != nil || len(req.Sort) != 0 {
		t.Fatalf("unexpected defaults: %+v", req)
	}
}

func TestParseRequestZeroLimitMeansDefault(t *testing.T) {
	req, err := ParseRequest(`{"limit": 0}`, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Limit != DefaultLimit {
		t.Fatalf("expected default limit for 0, got %d", req.Limit)
	}
}

func TestParseRequestConfiguredDefaultLimit(t *testing.T) {
	req, err := ParseRequest(`{}`, 25)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Limit != 25 {
		t.Fatalf("expected configured default 25, got %d", req.Limit)
	}

	// an explicit limit always wins over the configured default
	req, err = ParseRequest(`{"limit": 7}`, 25)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Limit != 7 {
		t.Fatalf("expected explicit limit 7, got %d", req.Limit)
	}
}

func TestParseRequestRejectsNegatives(t *testing.T) {
	if _, err := ParseRequest(`{"limit": -5}`, 0); err == nil {
		t.Fatal("expected error for negative limit")
	}
	if _, err := ParseRequest(`{"skip": -1}`, 0); err == nil {
		t.Fatal("expected error for negative skip")
	}
}

func TestParseRequestRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseRequest(`{"filter": {`, 0); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseRequestSortPreservesKeyOrder(t *testing.T) {
	req, err := ParseRequest(`{"sort": {"b": -1, "a": 1, "c": -1}}`, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(req.Sort) != 3 {
		t.Fatalf("expected 3 sort keys, got %d", len(req.Sort))
	}
	if req.Sort[0].Field != "b" || !req.Sort[0].Desc {
		t.Fatalf("sort[0] = %+v", req.Sort[0])
	}
	if req.Sort[1].Field != "a" || req.Sort[1].Desc {
		t.Fatalf("sort[1] = %+v", req.Sort[1])
	}
	if req.Sort[2].Field != "c" || !req.Sort[2].Desc {
		t.Fatalf("sort[2] = %+v", req.Sort[2])
	}
}

func TestParseRequestSortMustBeObject(t *testing.T) {
	if _, err := ParseRequest(`{"sort": ["a"]}`, 0); err == nil {
		t.Fatal("expected error for array sort spec")
	}
}

func TestParseRequestFullShape(t *testing.T) {
	req, err := ParseRequest(`{
		"filter": {"age": {"$gte": 18}},
		"projection": {"name": 1},
		"sort": {"age": -1},
		"limit": 25,
		"skip": 5
	}`, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Limit != 25 || req.Skip != 5 {
		t.Fatalf("limit/skip: %+v", req)
	}
	if req.Filter == nil || req.Projection == nil {
		t.Fatalf("filter/projection missing: %+v", req)
	}
}
