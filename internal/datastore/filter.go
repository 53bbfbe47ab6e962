package datastore

import (
	"fmt"
	"reflect"
	"regexp"
)

// MatchDoc evaluates a Mongo-style filter against one document. An empty or
// nil filter matches everything. Top-level $and/$or take arrays of
// subfilters; plain fields AND together. Field conditions are either a
// literal (equality) or an operator object.
func MatchDoc(doc map[string]any, filter map[string]any) (bool, error) {
	for key, cond := range filter {
		switch key {
		case "$and":
			subs, ok := cond.([]any)
			if !ok {
				return false, fmt.Errorf("$and expects an array")
			}
			for _, sub := range subs {
				subFilter, ok := sub.(map[string]any)
				if !ok {
					return false, fmt.Errorf("$and expects an array of objects")
				}
				matched, err := MatchDoc(doc, subFilter)
				if err != nil || !matched {
					return false, err
				}
			}
		case "$or":
			subs, ok := cond.([]any)
			if !ok {
				return false, fmt.Errorf("$or expects an array")
			}
			anyMatched := false
			for _, sub := range subs {
				subFilter, ok := sub.(map[string]any)
				if !ok {
					return false, fmt.Errorf("$or expects an array of objects")
				}
				matched, err := MatchDoc(doc, subFilter)
				if err != nil {
					return false, err
				}
				if matched {
					anyMatched = true
					break
				}
			}
			if !anyMatched {
				return false, nil
			}
		default:
			matched, err := matchField(doc, key, cond)
			if err != nil || !matched {
				return false, err
			}
		}
	}
	return true, nil
}

func matchField(doc map[string]any, field string, cond any) (bool, error) {
	value, present := doc[field]

	ops, isOps := cond.(map[string]any)
	if !isOps || len(ops) == 0 || !hasOperatorKey(ops) {
		// Literal equality.
		return present && equalValues(value, cond), nil
	}

	for op, operand := range ops {
		ok, err := applyOperator(op, value, present, operand)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func hasOperatorKey(m map[string]any) bool {
	for k := range m {
		if len(k) > 0 && k[0] == '$' {
			return true
		}
	}
	return false
}

func applyOperator(op string, value any, present bool, operand any) (bool, error) {
	switch op {
	case "$eq":
		return present && equalValues(value, operand), nil
	case "$ne":
		return !present || !equalValues(value, operand), nil
	case "$gt", "$gte", "$lt", "$lte":
		if !present {
			return false, nil
		}
		cmp, comparable := compareOrdered(value, operand)
		if !comparable {
			return false, nil
		}
		switch op {
		case "$gt":
			return cmp > 0, nil
		case "$gte":
			return cmp >= 0, nil
		case "$lt":
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case "$in", "$nin":
		candidates, ok := operand.([]any)
		if !ok {
			return false, fmt.Errorf("%s expects an array", op)
		}
		found := false
		if present {
			for _, candidate := range candidates {
				if equalValues(value, candidate) {
					found = true
					break
				}
			}
		}
		if op == "$in" {
			return found, nil
		}
		return !found, nil
	case "$exists":
		want := truthy(operand)
		return present == want, nil
	case "$regex":
		pattern, ok := operand.(string)
		if !ok {
			return false, fmt.Errorf("$regex expects a string")
		}
		str, ok := value.(string)
		if !ok {
			return false, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid $regex %q: %w", pattern, err)
		}
		return re.MatchString(str), nil
	case "$not":
		sub, ok := operand.(map[string]any)
		if !ok {
			return false, fmt.Errorf("$not expects an operator object")
		}
		for subOp, subOperand := range sub {
			matched, err := applyOperator(subOp, value, present, subOperand)
			if err != nil {
				return false, err
			}
			if matched {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported operator %s", op)
	}
}

func equalValues(a, b any) bool {
	if fa, oka := toFloat(a); oka {
		if fb, okb := toFloat(b); okb {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compareOrdered orders numbers numerically and strings lexically; mixed or
// unordered types are not comparable.
func compareOrdered(a, b any) (int, bool) {
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka && okb {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, oka := a.(string)
	sb, okb := b.(string)
	if oka && okb {
		switch {
		case sa < sb:
			return -1, true
		case sa > sb:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// compareValues is the sort comparison: comparable values order as in
// compareOrdered; nil sorts first; incomparable pairs are treated as equal.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if cmp, ok := compareOrdered(a, b); ok {
		return cmp
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
