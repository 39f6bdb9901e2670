package builtin

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"trialinv/pkg/records"
)

// DeDup policies.
const (
	PolicyKeepFirst    = "keep-first"
	PolicyKeepLast     = "keep-last"
	PolicyMostComplete = "most-complete"
)

// IsPolicy reports whether name is a known DeDup policy.
func IsPolicy(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyKeepFirst, PolicyKeepLast, PolicyMostComplete:
		return true
	}
	return false
}

// DeDup collapses rows sharing the same key and picks a winner by policy:
//
//   - "keep-first"    earliest occurrence wins
//   - "keep-last"     latest occurrence wins (default)
//   - "most-complete" row with the most non-null fields wins; ties go to
//     the later row
//
// Rows missing a key field are passed through after the winners. The merge
// applies it to the archived snapshot with the archive_dedup policy,
// keep-first unless configured otherwise.
type DeDup struct {
	Keys   []string
	Policy string

	// Dropped is incremented by the number of collapsed rows when non-nil.
	Dropped *int
}

func (d DeDup) Apply(t *records.Table) *records.Table {
	if t.Len() == 0 || len(d.Keys) == 0 {
		return t
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = PolicyKeepLast
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[string]slot, t.Len())
	var passthrough []records.Record

	for i, r := range t.Rows {
		key, ok := rowKey(r, d.Keys)
		if !ok {
			passthrough = append(passthrough, r)
			continue
		}
		prev, exists := winners[key]
		switch policy {
		case PolicyKeepFirst:
			if !exists {
				winners[key] = slot{index: i}
			}
		case PolicyMostComplete:
			s := slot{index: i, score: completeness(r)}
			if !exists || s.score >= prev.score {
				winners[key] = s
			}
		default:
			winners[key] = slot{index: i}
		}
	}

	idx := make([]int, 0, len(winners))
	for _, s := range winners {
		idx = append(idx, s.index)
	}
	sort.Ints(idx)

	out := make([]records.Record, 0, len(idx)+len(passthrough))
	for _, i := range idx {
		out = append(out, t.Rows[i])
	}
	out = append(out, passthrough...)

	if d.Dropped != nil {
		*d.Dropped += t.Len() - len(out)
	}
	t.Rows = out
	return t
}

// rowKey joins the key fields into one comparable string. ok is false when a
// key field is absent or null.
func rowKey(r records.Record, keys []string) (string, bool) {
	var b strings.Builder
	for i, k := range keys {
		v := r[k]
		if v == nil {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(keyText(v))
	}
	return b.String(), true
}

// keyText renders key values so that the same logical value read back from a
// previous snapshot compares equal.
func keyText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case float64:
		if i, ok := asInt(x); ok {
			return fmt.Sprint(i)
		}
	}
	return fmt.Sprint(v)
}

func completeness(r records.Record) int {
	n := 0
	for _, v := range r {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		n++
	}
	return n
}
