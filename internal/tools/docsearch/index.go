package docsearch

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog"
)

// Hit is one search result.
type Hit struct {
	Path    string
	Title   string
	Score   float64
	Snippet string
}

// Index is a bleve full-text index over a document directory.
type Index struct {
	index bleve.Index
	path  string
	log   zerolog.Logger
}

// OpenIndex opens or creates the index at indexPath and (re)indexes the
// corpus under docsDir. A corrupted index is deleted and rebuilt rather
// than surfaced as an error.
func OpenIndex(indexPath, docsDir string, log zerolog.Logger) (*Index, error) {
	idx, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create document index: %w", err)
		}
	} else if err != nil {
		log.Warn().Err(err).Msg("document index unreadable, rebuilding")
		if idx != nil {
			idx.Close()
		}
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted index: %w", err)
		}
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate document index: %w", err)
		}
	}

	d := &Index{index: idx, path: indexPath, log: log}
	if docsDir != "" {
		if err := d.Reindex(docsDir); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.Index = true
	docMapping.AddFieldMappingsAt("path", pathField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Reindex walks docsDir and indexes every document in one batch.
func (d *Index) Reindex(docsDir string) error {
	docs, err := walkCorpus(docsDir)
	if err != nil {
		return fmt.Errorf("failed to walk document corpus: %w", err)
	}

	batch := d.index.NewBatch()
	for _, doc := range docs {
		err := batch.Index(doc.Path, map[string]any{
			"path":  doc.Path,
			"title": doc.Title,
			"text":  doc.Text,
		})
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", doc.Path, err)
		}
	}
	if err := d.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to commit index batch: %w", err)
	}
	d.log.Debug().Int("documents", len(docs)).Msg("document corpus indexed")
	return nil
}

const snippetLen = 300

// Search runs a match query over title and text, returning up to k hits.
func (d *Index) Search(query string, k int) ([]Hit, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"path", "title", "text"}

	res, err := d.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if p, ok := h.Fields["path"].(string); ok {
			hit.Path = p
		}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		if txt, ok := h.Fields["text"].(string); ok {
			if len(txt) > snippetLen {
				txt = txt[:snippetLen] + "..."
			}
			hit.Snippet = txt
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the underlying bleve index.
func (d *Index) Close() error {
	return d.index.Close()
}
