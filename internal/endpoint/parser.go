// Package endpoint reconstructs API endpoints from retrieved chunk text.
package endpoint

import (
	"sort"
	"strings"

	"github.com/hyperjump/apiquery/internal/doctext"
	"github.com/hyperjump/apiquery/internal/models"
)

// Parse extracts endpoints from text in order of appearance.
//
// An endpoint line opens a record; summary, description and parameter lines attach to the
// open record. Any other block start (API, collection, request, folder) closes it.
// Unrecognized lines are ignored.
func Parse(text string) []*models.Endpoint {
	var out []*models.Endpoint
	var current *models.Endpoint
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if method, path, ok := doctext.ParseEndpointLine(line); ok {
			current = &models.Endpoint{Method: method, Path: path}
			out = append(out, current)
			continue
		}
		if doctext.IsBlockStart(line) {
			current = nil
			continue
		}
		if current == nil {
			continue
		}
		if v, ok := doctext.Value(line, doctext.Summary); ok {
			current.Summary = v
		} else if v, ok := doctext.Value(line, doctext.Description); ok {
			current.Description = v
		} else if v, ok := doctext.Value(line, doctext.Parameters); ok {
			current.Parameters = splitList(v)
		}
	}
	return out
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, doctext.ListSeparator)
}

type group struct {
	docID   string
	docName string
	docType string
	records []*models.Record
}

// minOverlap is the shortest suffix/prefix match accepted as chunk overlap.
const minOverlap = 8

// FromRecords extracts endpoints from retrieved records.
//
// Records are grouped by document in first-seen order. Within a group, chunks with
// consecutive ordinals are parsed as one text, so an endpoint cut by a chunk boundary is
// recovered whole. A gap in the ordinals starts a new text, so lines after a missing chunk
// never attach to the endpoint before it. Copies of the same endpoint are merged.
func FromRecords(records []*models.Record) []*models.Endpoint {
	var groups []*group
	byDoc := make(map[string]*group)
	for _, r := range records {
		if r == nil {
			continue
		}
		key := r.DocID()
		if key == "" {
			// Records without a document are parsed on their own.
			key = "record:" + r.ID
		}
		g, ok := byDoc[key]
		if !ok {
			g = &group{docID: r.DocID(), docName: r.DocName(), docType: r.DocType()}
			byDoc[key] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, r)
	}

	var out []*models.Endpoint
	for _, g := range groups {
		sort.SliceStable(g.records, func(i, j int) bool {
			return g.records[i].ChunkOrdinal() < g.records[j].ChunkOrdinal()
		})
		var merged []*models.Endpoint
		seen := make(map[string]*models.Endpoint)
		for _, run := range runs(g.records) {
			for _, ep := range Parse(stitch(run)) {
				key := ep.Method + " " + ep.Path
				if prev, ok := seen[key]; ok {
					fill(prev, ep)
					continue
				}
				ep.DocID, ep.DocName, ep.DocType = g.docID, g.docName, g.docType
				seen[key] = ep
				merged = append(merged, ep)
			}
		}
		out = append(out, merged...)
	}
	return out
}

// runs splits sorted records into texts of consecutive chunk ordinals. Records without
// an ordinal stand alone.
func runs(records []*models.Record) [][]string {
	var out [][]string
	last := -2
	for _, r := range records {
		n := r.ChunkOrdinal()
		if len(out) == 0 || n < 0 || last < 0 || n != last+1 {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], r.Text)
		last = n
	}
	return out
}

// stitch joins consecutive chunk texts. Text repeated at the start of a chunk because of
// window overlap is appended once; chunks that do not overlap are joined by a newline.
func stitch(texts []string) string {
	var b strings.Builder
	prev := ""
	for i, t := range texts {
		if i == 0 {
			b.WriteString(t)
			prev = t
			continue
		}
		if n := overlap(prev, t); n > 0 {
			b.WriteString(t[n:])
		} else {
			b.WriteString("\n")
			b.WriteString(t)
		}
		prev = t
	}
	return b.String()
}

// overlap returns the length of the longest prefix of next that ends prev.
func overlap(prev, next string) int {
	n := len(prev)
	if len(next) < n {
		n = len(next)
	}
	for ; n >= minOverlap; n-- {
		if strings.HasSuffix(prev, next[:n]) {
			return n
		}
	}
	return 0
}

// fill merges src into dst; empty or shorter (truncated) fields take src's value.
func fill(dst, src *models.Endpoint) {
	if len(src.Summary) > len(dst.Summary) {
		dst.Summary = src.Summary
	}
	if len(src.Description) > len(dst.Description) {
		dst.Description = src.Description
	}
	if len(src.Parameters) > len(dst.Parameters) {
		dst.Parameters = src.Parameters
	}
}
