package ingestion

import (
	"strings"

	"github.com/poiesic/docchat/core"
)

// Batch is the settled outcome of one Ingest call.
type Batch struct {
	ID      string            // Correlates log lines of one batch
	Records []core.FileRecord // One per submitted file, in submission order
	Context string            // Aggregated text of the Processed records; empty when none
}

// HasContext reports whether at least one file reached Processed.
func (b *Batch) HasContext() bool {
	return b != nil && b.Context != ""
}

// Counts returns how many records were processed and how many errored.
func (b *Batch) Counts() (processed, errored int) {
	if b == nil {
		return 0, 0
	}
	for _, r := range b.Records {
		switch r.Status() {
		case core.FileStatusProcessed:
			processed++
		case core.FileStatusErrored:
			errored++
		}
	}
	return processed, errored
}

// ContextHeader is the provenance line placed before each file's text.
func ContextHeader(name string) string {
	return "--- Content from " + name + " ---"
}

// BuildContext concatenates the text of every Processed record, in the order
// given, each preceded by its provenance header. Sections are separated by a
// blank line. Returns the empty string if no record is Processed.
func BuildContext(records []core.FileRecord) string {
	sections := make([]string, 0, len(records))
	for _, r := range records {
		text, ok := r.Text()
		if !ok {
			continue
		}
		sections = append(sections, ContextHeader(r.Name())+"\n"+text)
	}
	return strings.Join(sections, "\n\n")
}
