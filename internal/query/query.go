// Package query turns the trial inventory SQL template into the statement sent
// to the database.
//
// The template is opaque SQL with a {TRIAL_CODE} marker. The trial code is
// substituted verbatim: it comes from the operator's own configuration, not
// from untrusted input, so no quoting or escaping is applied here.
package query

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

// Marker is the placeholder replaced by the trial code.
const Marker = "{TRIAL_CODE}"

// TemplateError reports an unreadable or malformed SQL template.
type TemplateError struct {
	Path   string
	Reason string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sql template %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("sql template %s: %s", e.Path, e.Reason)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// readFile is a test seam; production reads from disk.
var readFile = os.ReadFile

// Build reads the template at path and substitutes trialCode for every
// {TRIAL_CODE} marker. The rest of the template is returned byte-for-byte.
func Build(path, trialCode string) (string, error) {
	b, err := readFile(path)
	if err != nil {
		return "", &TemplateError{Path: path, Reason: "cannot read template", Err: err}
	}
	sql, err := Render(string(b), trialCode)
	if err != nil {
		return "", &TemplateError{Path: path, Reason: err.Error()}
	}
	for _, name := range Placeholders(sql) {
		log.Printf("query: warning: template %s has unresolved placeholder {%s}", path, name)
	}
	return sql, nil
}

// Render substitutes trialCode into an in-memory template.
func Render(tmpl, trialCode string) (string, error) {
	if !strings.Contains(tmpl, Marker) {
		return "", fmt.Errorf("no %s marker found", Marker)
	}
	return strings.ReplaceAll(tmpl, Marker, trialCode), nil
}

var placeholderRE = regexp.MustCompile(`\{([A-Z][A-Z0-9_]*)\}`)

// Placeholders lists the distinct {UPPER_CASE} markers remaining in text, in
// order of first appearance.
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholderRE.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Excerpt shortens a statement for error messages and logs.
func Excerpt(sql string, max int) string {
	s := strings.Join(strings.Fields(sql), " ")
	if max > 3 && len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
