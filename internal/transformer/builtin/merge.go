package builtin

import (
	"fmt"
	"log"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"trialinv/pkg/records"
)

// Archive statuses written to ARCHIVE_STATUS.
const (
	StatusNew       = "new"
	StatusUnchanged = "unchanged"
	StatusChanged   = "changed"
)

// ArchivedSuffix is appended to a carried column that the new extract also
// produces (ignoring case), so both values survive side by side.
const ArchivedSuffix = "_ARCHIVED"

// Merge left-joins columns from a previous snapshot onto the extract by Key.
// Rows only present in the archive are dropped; rows only present in the
// extract get nulls. Every row is tagged with ARCHIVE_STATUS by comparing a
// fingerprint of the columns both tables share.
type Merge struct {
	Archive *records.Table
	Key     string

	// Columns lists the archive columns to carry. Empty means every archive
	// column the extract does not already have.
	Columns []string
}

// NewMerge checks that the archive carries the key and collapses duplicate
// archive keys with the DeDup policy (keep-first when empty).
func NewMerge(archive *records.Table, key string, columns []string, policy string) (Merge, error) {
	if archive == nil {
		return Merge{}, fmt.Errorf("merge: archive table is nil")
	}
	if key == "" {
		return Merge{}, fmt.Errorf("merge: key must not be empty")
	}
	if !archive.Has(key) {
		return Merge{}, fmt.Errorf("merge: archive has no %q column", key)
	}
	for _, c := range columns {
		if !archive.Has(c) {
			return Merge{}, fmt.Errorf("merge: archive has no %q column", c)
		}
	}

	if policy == "" {
		policy = PolicyKeepFirst
	}
	if !IsPolicy(policy) {
		return Merge{}, fmt.Errorf("merge: unknown duplicate policy %q", policy)
	}

	dups := 0
	archive = DeDup{Keys: []string{key}, Policy: policy, Dropped: &dups}.Apply(archive)
	if dups > 0 {
		log.Printf("transform: archive has %d duplicate %s rows; resolved with %s", dups, key, policy)
	}
	return Merge{Archive: archive, Key: key, Columns: columns}, nil
}

func (m Merge) Apply(t *records.Table) *records.Table {
	shared := m.sharedColumns(t)
	carry := m.carried(t)

	for _, c := range carry {
		t.AddColumn(c.to, m.Archive.Kind(c.from))
	}
	setStatus := derive(t, FieldArchiveStatus, records.KindString)

	byKey := make(map[string]records.Record, m.Archive.Len())
	for _, r := range m.Archive.Rows {
		if k, ok := rowKey(r, []string{m.Key}); ok {
			byKey[k] = r
		}
	}

	counts := map[string]int{}
	h := xxh3.New()
	for _, r := range t.Rows {
		var prev records.Record
		if k, ok := rowKey(r, []string{m.Key}); ok {
			prev = byKey[k]
		}

		status := StatusNew
		if prev != nil {
			status = StatusChanged
			if fingerprint(h, r, shared) == fingerprint(h, prev, shared) {
				status = StatusUnchanged
			}
		}
		for _, c := range carry {
			var v any
			if prev != nil {
				v = prev[c.from]
			}
			r[c.to] = v
		}
		if setStatus {
			r[FieldArchiveStatus] = status
		}
		counts[status]++
	}

	log.Printf("transform: merged archive key=%s carried=%d new=%d unchanged=%d changed=%d",
		m.Key, len(carry), counts[StatusNew], counts[StatusUnchanged], counts[StatusChanged])
	return t
}

type carriedColumn struct{ from, to string }

func (m Merge) carried(t *records.Table) []carriedColumn {
	var out []carriedColumn
	if len(m.Columns) == 0 {
		for _, c := range m.Archive.Columns {
			if c == m.Key || c == FieldArchiveStatus || t.IndexFold(c) >= 0 {
				continue
			}
			out = append(out, carriedColumn{from: c, to: c})
		}
		return out
	}
	for _, c := range m.Columns {
		if c == m.Key {
			continue
		}
		to := c
		if t.IndexFold(c) >= 0 {
			to = c + ArchivedSuffix
		}
		out = append(out, carriedColumn{from: c, to: to})
	}
	return out
}

// sharedColumns lists, in sorted order, the non-key columns present in both
// tables before any archive column is carried.
func (m Merge) sharedColumns(t *records.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if c == m.Key || c == FieldArchiveStatus || !m.Archive.Has(c) {
			continue
		}
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// fingerprint hashes the values of cols in r. Values are written in a
// type-tagged canonical form so that an extract value and the same value read
// back from Parquet hash identically.
func fingerprint(h *xxh3.Hasher, r records.Record, cols []string) uint64 {
	h.Reset()
	for _, c := range cols {
		h.WriteString(c)
		h.WriteString("\x1f")
		h.WriteString(canonical(r[c]))
		h.WriteString("\x1e")
	}
	return h.Sum64()
}

func canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return "n"
	case string:
		return "s" + x
	case bool:
		return "b" + strconv.FormatBool(x)
	case int64:
		return "i" + strconv.FormatInt(x, 10)
	case int:
		return "i" + strconv.Itoa(x)
	case int32:
		return "i" + strconv.FormatInt(int64(x), 10)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return "i" + strconv.FormatInt(int64(x), 10)
		}
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "t" + x.UTC().Format(time.RFC3339Nano)
	}
	return "v" + fmt.Sprint(v)
}
