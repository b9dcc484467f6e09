package audit

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff is a unified diff between the before and after snapshots of an entry.
type Diff struct {
	Unified string `json:"unified"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// pretty indents a JSON document; encoding/json orders object keys, so equal
// documents print identically.
func pretty(doc string) string {
	if doc == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return doc
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return doc
	}
	return buf.String()
}

// DiffOf returns the diff of e. Added and Removed count changed fields.
func DiffOf(e Entry) Diff {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(pretty(e.BeforeJSON)),
		B:        difflib.SplitLines(pretty(e.AfterJSON)),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	s, _ := difflib.GetUnifiedDiffString(ud)
	d := Diff{Unified: s}
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") || !strings.Contains(line, `":`) {
			continue
		}
		switch line[0] {
		case '+':
			d.Added++
		case '-':
			d.Removed++
		}
	}
	return d
}
