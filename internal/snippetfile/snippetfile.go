// Package snippetfile loads practice snippets from source files.
package snippetfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxRunes bounds the length of an imported snippet.
const MaxRunes = 4000

// File is a snippet read from disk.
type File struct {
	Path  string
	Title string
	Lang  string
	Code  string
}

// Load reads one snippet file. Line endings become LF and a single trailing
// newline is dropped; everything else is kept verbatim.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	if !utf8.Valid(data) {
		return File{}, fmt.Errorf("%s is not valid UTF-8", path)
	}
	code := strings.ReplaceAll(string(data), "\r\n", "\n")
	code = strings.TrimSuffix(code, "\n")
	if strings.TrimSpace(code) == "" {
		return File{}, fmt.Errorf("%s is empty", path)
	}
	if n := utf8.RuneCountInString(code); n > MaxRunes {
		return File{}, fmt.Errorf("%s is too long (%d characters, max %d)", path, n, MaxRunes)
	}
	return File{
		Path:  path,
		Title: TitleFromPath(path),
		Lang:  LanguageForPath(path),
		Code:  code,
	}, nil
}

// LoadDir loads every file under dir with a known language extension.
func LoadDir(dir string) ([]File, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || LanguageForPath(path) == "" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// TitleFromPath turns "binary_search.py" into "Binary Search".
func TitleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
