package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "b.txt", "second document")
	writeDoc(t, dir, "a.md", "first document")
	writeDoc(t, dir, "notes.TXT", "uppercase extension")
	writeDoc(t, dir, "ignore.json", `{"skipped": true}`)
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	want := []Document{
		{Source: "a.md", Text: "first document"},
		{Source: "b.txt", Text: "second document"},
		{Source: "notes.TXT", Text: "uppercase extension"},
	}
	if len(docs) != len(want) {
		t.Fatalf("got %d documents, want %d", len(docs), len(want))
	}
	for i := range want {
		if docs[i] != want[i] {
			t.Errorf("document %d = %+v, want %+v", i, docs[i], want[i])
		}
	}
}

func TestLoadDir_Empty(t *testing.T) {
	docs, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents from empty dir, want 0", len(docs))
	}
}

func TestLoadDir_MissingDir(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("LoadDir on missing directory succeeded, want error")
	}
}

func TestFingerprint(t *testing.T) {
	a := []Document{{Source: "a.txt", Text: "hello"}}
	b := []Document{{Source: "a.txt", Text: "hello"}}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical corpora produced different fingerprints")
	}

	changed := []Document{{Source: "a.txt", Text: "hello!"}}
	if Fingerprint(a) == Fingerprint(changed) {
		t.Error("changed text did not change the fingerprint")
	}

	renamed := []Document{{Source: "b.txt", Text: "hello"}}
	if Fingerprint(a) == Fingerprint(renamed) {
		t.Error("renamed source did not change the fingerprint")
	}

	// Length prefixing keeps field boundaries unambiguous.
	joined := []Document{{Source: "a.txtb", Text: ".txt"}}
	split := []Document{{Source: "a.txt", Text: "b.txt"}}
	if Fingerprint(joined) == Fingerprint(split) {
		t.Error("shifted field boundary did not change the fingerprint")
	}
}
