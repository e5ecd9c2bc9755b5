// internal/adapter/storage/match.go

package storage

import (
	"sort"
	"strings"
	"time"

	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

// matches evaluates every condition against a document
func matches(doc record.Document, conditions []proximity.Condition) bool {
	for _, c := range conditions {
		value, ok := doc.Field(c.Field)
		if !ok || !matchCondition(value, c) {
			return false
		}
	}
	return true
}

func matchCondition(value any, c proximity.Condition) bool {
	switch c.Op {
	case proximity.OpEq:
		if values, ok := value.([]string); ok {
			s, isString := c.Value.(string)
			return isString && containsString(values, s)
		}
		return equalValues(value, c.Value)

	case proximity.OpIn, proximity.OpAnyOf:
		switch v := value.(type) {
		case string:
			return containsString(c.Values, v)
		case []string:
			for _, item := range v {
				if containsString(c.Values, item) {
					return true
				}
			}
		}
		return false

	case proximity.OpContainsFold:
		s, ok := value.(string)
		needle, isString := c.Value.(string)
		return ok && isString && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	}

	return false
}

func equalValues(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := toFloat(b)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// sortDocuments orders documents by the sort keys in place
func sortDocuments[T record.Document](docs []T, keys []proximity.SortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			c := compareField(docs[i], docs[j], key)
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareField(a, b record.Document, key proximity.SortKey) int {
	av, _ := a.Field(key.Field)
	bv, _ := b.Field(key.Field)

	switch key.Type {
	case proximity.SortRank:
		as, _ := av.(string)
		bs, _ := bv.(string)
		return compareInts(key.RankOf(as), key.RankOf(bs))

	case proximity.SortNumber:
		an, _ := toFloat(av)
		bn, _ := toFloat(bv)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0

	case proximity.SortBool:
		ab, _ := av.(bool)
		bb, _ := bv.(bool)
		return compareInts(boolToInt(ab), boolToInt(bb))

	case proximity.SortTime:
		at, _ := av.(time.Time)
		bt, _ := bv.(time.Time)
		return at.Compare(bt)
	}

	as, _ := av.(string)
	bs, _ := bv.(string)
	return strings.Compare(as, bs)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// paginate returns the window of docs selected by skip and limit
func paginate[T any](docs []T, skip, limit int64) []T {
	if skip >= int64(len(docs)) {
		return []T{}
	}
	end := int64(len(docs))
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return docs[skip:end]
}
