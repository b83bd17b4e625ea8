package snippetfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadNormalizesLineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary_search.py")
	writeFile(t, path, "def f():\r\n    return 1\r\n")
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Code != "def f():\n    return 1" {
		t.Fatalf("unexpected code %q", f.Code)
	}
	if f.Title != "Binary Search" || f.Lang != "python" {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestLoadRejectsEmptyAndLong(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.js")
	writeFile(t, empty, "\n\n")
	if _, err := Load(empty); err == nil {
		t.Fatalf("expected empty file to fail")
	}
	long := filepath.Join(dir, "long.js")
	writeFile(t, long, strings.Repeat("x", MaxRunes+1))
	if _, err := Load(long); err == nil {
		t.Fatalf("expected long file to fail")
	}
}

func TestLoadDirSkipsUnknownAndHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.java"), "class B {}")
	writeFile(t, filepath.Join(dir, "a.py"), "print(1)")
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip me")
	writeFile(t, filepath.Join(dir, ".git", "hook.py"), "skip me")

	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Lang != "python" || files[1].Lang != "java" {
		t.Fatalf("unexpected order: %+v", files)
	}
}

func TestLanguageForPath(t *testing.T) {
	tests := map[string]string{
		"main.CPP":   "cpp",
		"style.css":  "html",
		"index.html": "html",
		"README":     "",
		"app.go":     "",
	}
	for path, want := range tests {
		if got := LanguageForPath(path); got != want {
			t.Fatalf("%s: expected %q, got %q", path, want, got)
		}
	}
}
