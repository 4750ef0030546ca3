package task

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/scorecard/internal/domain/model"
)

// KeyIndex is an order item re-keyed by lower-cased column name. Source
// sheets do not agree on casing (Planned_3, PLANNED_3, planned_3).
type KeyIndex map[string]any

// IndexKeys builds the index for one item. When two keys collide after
// lower-casing, the lexically smallest original key wins so the result does
// not depend on map iteration order.
func IndexKeys(item model.OrderItem) KeyIndex {
	idx := make(KeyIndex, len(item))
	winner := make(map[string]string, len(item))
	for k, v := range item {
		lk := strings.ToLower(strings.TrimSpace(k))
		if prev, ok := winner[lk]; ok && prev < k {
			continue
		}
		winner[lk] = k
		idx[lk] = v
	}
	return idx
}

// String returns the value under key as text; missing and null values are "".
func (k KeyIndex) String(key string) string {
	return stringify(k[strings.ToLower(key)])
}

// Planned returns the planned_<step> cell.
func (k KeyIndex) Planned(step int) string {
	return k.String("planned_" + strconv.Itoa(step))
}

// Actual returns the actual_<step> cell.
func (k KeyIndex) Actual(step int) string {
	return k.String("actual_" + strconv.Itoa(step))
}

// Steps returns the step numbers that have a non-blank planned or actual cell.
func (k KeyIndex) Steps() []int {
	seen := make(map[int]bool)
	var out []int
	for key, v := range k {
		var rest string
		switch {
		case strings.HasPrefix(key, "planned_"):
			rest = key[len("planned_"):]
		case strings.HasPrefix(key, "actual_"):
			rest = key[len("actual_"):]
		default:
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 || seen[n] || strings.TrimSpace(stringify(v)) == "" {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
