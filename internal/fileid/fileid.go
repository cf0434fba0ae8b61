// Package fileid derives document IDs for spec files indexed from disk.
package fileid

import (
	"path/filepath"

	"github.com/google/uuid"
)

// namespace scopes file IDs so they never collide with random upload IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("apiquery:file"))

// FileDocID returns a name-based (v5) UUID for the cleaned path, so re-indexing or
// deleting a file by path always addresses the same document.
func FileDocID(absolutePath string) string {
	return uuid.NewSHA1(namespace, []byte(filepath.Clean(absolutePath))).String()
}
