package repotest

import (
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toM converts any bson-encodable value to its document form so documents and
// filters compare with identical types.
func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// matches supports top-level equality plus $eq, $ne, $gte, $gt, $lte, $lt,
// $in and $elemMatch over arrays of sub-documents. Dotted paths are not
// supported.
func matches(doc, filter bson.M) (bool, error) {
	for key, want := range filter {
		if strings.HasPrefix(key, "$") {
			return false, fmt.Errorf("unsupported top-level operator %s", key)
		}
		ok, err := matchValue(doc[key], want)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchValue(got, want any) (bool, error) {
	ops, isOps := asM(want)
	if !isOps || !hasOperators(ops) {
		return equal(got, want), nil
	}

	for op, arg := range ops {
		var ok bool
		switch op {
		case "$eq":
			ok = equal(got, arg)
		case "$ne":
			ok = !equal(got, arg)
		case "$gte", "$gt", "$lte", "$lt":
			c, comparable := compare(got, arg)
			if !comparable {
				return false, nil
			}
			ok = (op == "$gte" && c >= 0) || (op == "$gt" && c > 0) ||
				(op == "$lte" && c <= 0) || (op == "$lt" && c < 0)
		case "$in":
			ok = in(got, arg)
		case "$elemMatch":
			sub, isM := asM(arg)
			if !isM {
				return false, fmt.Errorf("$elemMatch expects a document")
			}
			var err error
			ok, err = elemMatch(got, sub)
			if err != nil {
				return false, err
			}
		default:
			return false, fmt.Errorf("unsupported operator %s", op)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func hasOperators(m bson.M) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func elemMatch(got any, filter bson.M) (bool, error) {
	arr, ok := got.(bson.A)
	if !ok {
		return false, nil
	}
	for _, el := range arr {
		sub, ok := asM(el)
		if !ok {
			continue
		}
		m, err := matches(sub, filter)
		if err != nil {
			return false, err
		}
		if m {
			return true, nil
		}
	}
	return false, nil
}

// asM accepts either document representation the decoder may produce
func asM(v any) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case map[string]any:
		return bson.M(d), true
	case bson.D:
		m := make(bson.M, len(d))
		for _, e := range d {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func in(got, arg any) bool {
	arr, ok := arg.(bson.A)
	if !ok {
		return false
	}
	for _, v := range arr {
		if equal(got, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers, strings and datetimes
func compare(a, b any) (int, bool) {
	if af, ok := number(a); ok {
		bf, ok := number(b)
		if !ok {
			return 0, false
		}
		return cmp(af, bf), true
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case primitive.DateTime:
		return float64(n), true
	}
	return 0, false
}

func cmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
