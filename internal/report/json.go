package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const emptyDocument = `{"reports":[]}`

// JSON collects reports and writes them as one JSON document on Flush:
//
//	{"run_id": "...", "count": 2, "reports": [{"title": ..., "body": ..., "severity": "error"}]}
type JSON struct {
	mu     sync.Mutex
	w      io.Writer
	doc    []byte
	count  int
	indent bool
}

// NewJSON creates a JSON reporter writing to w.
func NewJSON(w io.Writer, indent bool) *JSON {
	return &JSON{w: w, doc: []byte(emptyDocument), indent: indent}
}

// Show implements Reporter.
func (j *JSON) Show(title, body string, severity Severity, host HostContext) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"title", title},
		{"body", body},
		{"severity", severity.String()},
	} {
		if entry, err = sjson.SetBytes(entry, kv.path, kv.value); err != nil {
			return fmt.Errorf("encode report %q: %w", title, err)
		}
	}
	if host.Trigger != "" {
		if entry, err = sjson.SetBytes(entry, "trigger", host.Trigger); err != nil {
			return fmt.Errorf("encode report %q: %w", title, err)
		}
	}

	if host.RunID != "" {
		if j.doc, err = sjson.SetBytes(j.doc, "run_id", host.RunID); err != nil {
			return fmt.Errorf("encode run id: %w", err)
		}
	}
	if j.doc, err = sjson.SetRawBytes(j.doc, "reports.-1", entry); err != nil {
		return fmt.Errorf("append report %q: %w", title, err)
	}
	j.count++
	return nil
}

// Flush writes the collected document and starts a new one. A run with no
// reports writes a document with an empty reports array.
func (j *JSON) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	doc, err := sjson.SetBytes(j.doc, "count", j.count)
	if err != nil {
		return fmt.Errorf("encode count: %w", err)
	}
	if j.indent {
		doc = pretty.Pretty(doc)
	} else {
		doc = append(pretty.Ugly(doc), '\n')
	}

	if _, err := j.w.Write(doc); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	j.doc = []byte(emptyDocument)
	j.count = 0
	return nil
}
