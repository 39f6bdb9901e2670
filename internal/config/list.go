package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseList decodes a textual list setting into its entries. Two encodings are
// accepted:
//
//	["SNR", "QNS", null]   JSON array or YAML flow sequence
//	SNR, QNSR, QNS, NSI    plain comma-separated values
//
// A nil entry in the result is the null sentinel; it is produced by JSON/YAML
// null and by the literal words null, none and ~ in either encoding. Entries
// are trimmed and empty entries dropped.
func ParseList(s string) ([]*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var items []*string
	if strings.HasPrefix(s, "[") {
		if err := yaml.Unmarshal([]byte(s), &items); err != nil {
			return nil, fmt.Errorf("decode list %q: %w", s, err)
		}
	} else {
		for _, part := range strings.Split(s, ",") {
			part := part
			items = append(items, &part)
		}
	}

	out := make([]*string, 0, len(items))
	for _, it := range items {
		if it == nil {
			out = append(out, nil)
			continue
		}
		v := strings.TrimSpace(*it)
		if v == "" {
			continue
		}
		if isNullWord(v) {
			out = append(out, nil)
			continue
		}
		out = append(out, &v)
	}
	return out, nil
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "~", "<null>":
		return true
	}
	return false
}
