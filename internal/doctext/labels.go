// Package doctext defines the line labels shared by the text extractor and the endpoint parser.
//
// Extracted document text is line oriented: each line that carries structure starts with one of
// the labels below. Changing a label is a breaking change for already indexed chunks, so bump
// SchemaVersion when doing so.
package doctext

import "strings"

// SchemaVersion identifies the label vocabulary used to produce indexed text.
const SchemaVersion = "1"

// Labels. Each includes the trailing ": " separator.
const (
	API         = "API: "
	Version     = "Version: "
	Description = "Description: "
	BaseURLs    = "Base URLs: "
	BaseURL     = "Base URL: "
	Endpoint    = "Endpoint: "
	Summary     = "Summary: "
	Parameters  = "Parameters: "
	RequestBody = "Request Body: "
	Responses   = "Responses: "

	Collection = "Collection: "
	Request    = "Request: "
	URL        = "URL: "
	Headers    = "Headers: "
	Body       = "Body: "
	Folder     = "Folder: "
)

// ListSeparator joins list values (parameters, responses, headers) on one line.
const ListSeparator = ", "

// BlockSeparator separates top-level blocks of extracted text.
const BlockSeparator = "\n\n"

// blockStarts are labels that open a block which is not an endpoint.
var blockStarts = []string{API, Collection, Request, Folder}

// IsBlockStart reports whether a trimmed line opens a non-endpoint block.
func IsBlockStart(line string) bool {
	for _, l := range blockStarts {
		if strings.HasPrefix(line, l) {
			return true
		}
	}
	return false
}

// Line renders label followed by value.
func Line(label, value string) string {
	return label + value
}

// Value returns the text after label when line starts with it.
func Value(line, label string) (string, bool) {
	if !strings.HasPrefix(line, label) {
		return "", false
	}
	return strings.TrimPrefix(line, label), true
}

// EndpointLine renders the line that opens an endpoint block.
func EndpointLine(method, path string) string {
	return Endpoint + strings.ToUpper(method) + " " + path
}

// ParseEndpointLine splits an endpoint line into method and path.
// It reports false when the line is not an endpoint line or lacks a path.
func ParseEndpointLine(line string) (method, path string, ok bool) {
	rest, ok := Value(line, Endpoint)
	if !ok {
		return "", "", false
	}
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	return strings.ToUpper(parts[0]), parts[1], true
}
