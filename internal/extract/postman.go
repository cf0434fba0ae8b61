package extract

import (
	"strings"

	"github.com/hyperjump/apiquery/internal/doctext"
)

// maxBodyPreview is how many characters of a raw request body are kept.
const maxBodyPreview = 200

// postmanText flattens a Postman v2 collection.
func postmanText(content map[string]any) string {
	var parts []string
	if info, ok := mapOf(content["info"]); ok {
		parts = append(parts, doctext.Line(doctext.Collection, field(info, "name", "Unknown Collection")))
		if d, ok := info["description"]; ok {
			parts = append(parts, doctext.Line(doctext.Description, description(d)))
		}
	}
	walkItems(sliceOf(content["item"]), "", &parts)
	return joinBlocks(parts)
}

func walkItems(items []any, prefix string, parts *[]string) {
	for _, it := range items {
		item, ok := mapOf(it)
		if !ok {
			continue
		}
		if req, ok := item["request"]; ok {
			*parts = append(*parts, requestBlock(item, req, prefix))
			continue
		}
		if sub, ok := item["item"]; ok {
			*parts = append(*parts, "\n"+prefix+doctext.Line(doctext.Folder, field(item, "name", "Unnamed Folder")))
			walkItems(sliceOf(sub), prefix+"  ", parts)
		}
	}
}

func requestBlock(item map[string]any, req any, prefix string) string {
	request, _ := mapOf(req)
	if request == nil {
		// A bare string request is just the URL.
		request = map[string]any{"url": req}
	}
	var b strings.Builder
	b.WriteString("\n" + prefix)
	b.WriteString(doctext.Line(doctext.Request, field(request, "method", "GET")+" "+field(item, "name", "Unnamed Request")))

	if u, ok := request["url"]; ok {
		if um, ok := mapOf(u); ok {
			b.WriteString("\n" + doctext.Line(doctext.URL, field(um, "raw", "")))
		} else {
			b.WriteString("\n" + doctext.Line(doctext.URL, str(u)))
		}
	}

	if headers := sliceOf(request["header"]); len(headers) > 0 {
		var rendered []string
		for _, h := range headers {
			hm, ok := mapOf(h)
			if !ok {
				continue
			}
			rendered = append(rendered, field(hm, "key", "")+"="+field(hm, "value", ""))
		}
		b.WriteString("\n" + doctext.Line(doctext.Headers, strings.Join(rendered, doctext.ListSeparator)))
	}

	if truthy(request["body"]) {
		if body, ok := mapOf(request["body"]); ok {
			if raw, ok := body["raw"]; ok {
				b.WriteString("\n" + doctext.Line(doctext.Body, truncateRunes(str(raw), maxBodyPreview)+"..."))
			}
		}
	}

	if d, ok := item["description"]; ok {
		b.WriteString("\n" + doctext.Line(doctext.Description, description(d)))
	}
	return b.String()
}

// description accepts both plain strings and Postman description objects.
func description(v any) string {
	if m, ok := mapOf(v); ok {
		return field(m, "content", "")
	}
	return str(v)
}

// countPostmanRequests counts leaf requests recursively.
func countPostmanRequests(items []any) int {
	n := 0
	for _, it := range items {
		item, ok := mapOf(it)
		if !ok {
			continue
		}
		if _, ok := item["request"]; ok {
			n++
		} else if sub, ok := item["item"]; ok {
			n += countPostmanRequests(sliceOf(sub))
		}
	}
	return n
}
