// Package corpus loads the support document corpus from disk.
package corpus

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Document is one source file of the corpus. Source is the bare filename
// and doubles as the citation label in retrieval results.
type Document struct {
	Source string
	Text   string
}

// LoadDir reads all supported documents from dir. Enumeration order is
// lexicographic by filename, so chunk ids are stable for an unchanged
// corpus. A missing or unreadable directory is an error; an existing but
// empty directory yields an empty slice.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		var text string
		switch strings.ToLower(filepath.Ext(name)) {
		case ".txt", ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading document %s: %w", name, err)
			}
			text = string(data)
		case ".pdf":
			text, err = extractPDFText(path)
			if err != nil {
				return nil, fmt.Errorf("extracting text from %s: %w", name, err)
			}
		default:
			continue
		}

		docs = append(docs, Document{Source: name, Text: text})
	}

	return docs, nil
}

// Fingerprint returns a stable digest of the corpus contents, used to
// detect whether the persisted index is stale relative to the docs dir.
func Fingerprint(docs []Document) string {
	h, _ := blake2b.New256(nil)
	var lenBuf [8]byte
	for _, doc := range docs {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(doc.Source)))
		h.Write(lenBuf[:])
		h.Write([]byte(doc.Source))
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(doc.Text)))
		h.Write(lenBuf[:])
		h.Write([]byte(doc.Text))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
