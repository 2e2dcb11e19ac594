// Package docsearch provides the document lookup tool server: a bleve
// full-text index over a local directory of notes and documents.
package docsearch

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile in the corpus root lists gitignore-style patterns for files
// the index should skip.
const IgnoreFile = ".curioignore"

// maxDocSize guards against indexing huge binaries mislabeled as text.
const maxDocSize = 1 << 20 // 1 MiB

var textExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".rst":  true,
	".adoc": true,
}

// Document is one indexable file.
type Document struct {
	Path  string // relative to the corpus root
	Title string
	Text  string
}

// walkCorpus collects every indexable document under root, honoring
// .curioignore patterns. Unreadable files are skipped, not fatal.
func walkCorpus(root string) ([]Document, error) {
	matcher := loadIgnoreMatcher(root)

	var docs []Document
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxDocSize {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		docs = append(docs, Document{
			Path:  rel,
			Title: docTitle(rel, string(data)),
			Text:  string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func loadIgnoreMatcher(root string) gitignore.IgnoreParser {
	data, err := os.ReadFile(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	return gitignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// docTitle uses the first markdown heading when present, the filename
// otherwise.
func docTitle(rel, text string) string {
	for _, line := range strings.SplitN(text, "\n", 10) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
