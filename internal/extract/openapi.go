package extract

import (
	"sort"
	"strings"

	"github.com/hyperjump/apiquery/internal/doctext"
)

// httpVerbs are the operations emitted for each path, in output order.
var httpVerbs = []string{"get", "post", "put", "delete", "patch"}

func isHTTPVerb(s string) bool {
	s = strings.ToLower(s)
	for _, v := range httpVerbs {
		if v == s {
			return true
		}
	}
	return false
}

// openAPIText flattens an OpenAPI 3 or Swagger 2 document.
func openAPIText(content map[string]any) string {
	var parts []string

	if info, ok := mapOf(content["info"]); ok {
		parts = append(parts, doctext.Line(doctext.API, field(info, "title", "Unknown API")))
		parts = append(parts, doctext.Line(doctext.Version, field(info, "version", "Unknown")))
		if _, ok := info["description"]; ok {
			parts = append(parts, doctext.Line(doctext.Description, field(info, "description", "")))
		}
	}

	if servers, ok := content["servers"]; ok {
		var urls []string
		for _, s := range sliceOf(servers) {
			if m, ok := mapOf(s); ok {
				urls = append(urls, field(m, "url", ""))
			}
		}
		parts = append(parts, doctext.Line(doctext.BaseURLs, strings.Join(urls, doctext.ListSeparator)))
	} else if _, ok := content["host"]; ok {
		scheme := "https"
		if schemes := sliceOf(content["schemes"]); len(schemes) > 0 {
			scheme = str(schemes[0])
		}
		parts = append(parts, doctext.Line(doctext.BaseURL,
			scheme+"://"+field(content, "host", "")+field(content, "basePath", "")))
	}

	paths, _ := mapOf(content["paths"])
	for _, path := range sortedKeys(paths) {
		methods, ok := mapOf(paths[path])
		if !ok {
			continue
		}
		for _, verb := range httpVerbs {
			details, ok := operation(methods, verb)
			if !ok {
				continue
			}
			parts = append(parts, endpointBlock(verb, path, details))
		}
	}

	return joinBlocks(parts)
}

// operation looks up a verb case-insensitively.
func operation(methods map[string]any, verb string) (map[string]any, bool) {
	for k, v := range methods {
		if strings.EqualFold(k, verb) {
			m, ok := mapOf(v)
			if !ok {
				m = map[string]any{}
			}
			return m, true
		}
	}
	return nil, false
}

func endpointBlock(verb, path string, details map[string]any) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(doctext.EndpointLine(verb, path))

	if _, ok := details["summary"]; ok {
		b.WriteString("\n" + doctext.Line(doctext.Summary, field(details, "summary", "")))
	}
	if _, ok := details["description"]; ok {
		b.WriteString("\n" + doctext.Line(doctext.Description, field(details, "description", "")))
	}

	if params, ok := details["parameters"]; ok {
		var rendered []string
		for _, p := range sliceOf(params) {
			pm, ok := mapOf(p)
			if !ok {
				continue
			}
			info := field(pm, "name", "") + " (" + field(pm, "in", "unknown") + ")"
			if req, _ := pm["required"].(bool); req {
				info += " - required"
			}
			if _, ok := pm["description"]; ok {
				info += ": " + field(pm, "description", "")
			}
			rendered = append(rendered, info)
		}
		b.WriteString("\n" + doctext.Line(doctext.Parameters, strings.Join(rendered, doctext.ListSeparator)))
	}

	if body, ok := mapOf(details["requestBody"]); ok {
		if _, ok := body["description"]; ok {
			b.WriteString("\n" + doctext.Line(doctext.RequestBody, field(body, "description", "")))
		}
	}

	if responses, ok := mapOf(details["responses"]); ok {
		var rendered []string
		for _, code := range sortedKeys(responses) {
			info := code
			if rm, ok := mapOf(responses[code]); ok {
				if _, ok := rm["description"]; ok {
					info += ": " + field(rm, "description", "")
				}
			}
			rendered = append(rendered, info)
		}
		b.WriteString("\n" + doctext.Line(doctext.Responses, strings.Join(rendered, doctext.ListSeparator)))
	}
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// countOpenAPIEndpoints counts verb entries under paths.
func countOpenAPIEndpoints(content map[string]any) int {
	paths, _ := mapOf(content["paths"])
	n := 0
	for _, methods := range paths {
		m, ok := mapOf(methods)
		if !ok {
			continue
		}
		for verb := range m {
			if isHTTPVerb(verb) {
				n++
			}
		}
	}
	return n
}
