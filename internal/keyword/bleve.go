package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const (
	fieldDocID   = "doc_id"
	fieldDocName = "doc_name"
	fieldContent = "content"

	deletePageSize = 500
)

// chunkDoc is the document shape stored in Bleve.
type chunkDoc struct {
	DocID   string `json:"doc_id"`
	DocName string `json:"doc_name"`
	Content string `json:"content"`
}

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path keeps the index in memory.
// If you change the index mapping in code, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) keeps identifiers like
	// "findByStatus" intact as a single term.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldContent, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldDocName, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldDocID, bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces entries in one batch.
func (b *BleveIndex) Index(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, e := range entries {
		doc := chunkDoc{DocID: e.DocID, DocName: e.DocName, Content: e.Text}
		if err := batch.Index(e.ID, doc); err != nil {
			return fmt.Errorf("index %s: %w", e.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search matches query terms against chunk content and document names and returns up to
// limit hits by descending score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	fuzziness := 0
	coverage := false
	if opts != nil {
		fuzziness = opts.Fuzziness
		coverage = opts.CoveragePenalty
	}

	reqSize := limit
	if coverage && len(terms) > 1 {
		// Over-fetch so the penalized ranking still has limit candidates to choose from.
		reqSize = limit * 2
		if reqSize < 50 {
			reqSize = 50
		}
	}
	req := bleve.NewSearchRequest(buildQuery(query, terms, fuzziness))
	req.Size = reqSize
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	if !coverage || len(terms) < 2 {
		return out, nil
	}

	matched := b.termCoverage(ctx, terms, reqSize, fuzziness)
	for _, r := range out {
		n := matched[r.ID]
		if n == 0 {
			n = 1
		}
		share := float64(n) / float64(len(terms))
		r.Score *= share * share
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// buildQuery ORs the analyzed query over content and doc name, or per-term fuzzy queries.
func buildQuery(query string, terms []string, fuzziness int) blevequery.Query {
	if fuzziness <= 0 {
		content := bleve.NewMatchQuery(query)
		content.SetField(fieldContent)
		name := bleve.NewMatchQuery(query)
		name.SetField(fieldDocName)
		return bleve.NewDisjunctionQuery(content, name)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		queries = append(queries, fuzzyTerm(term, fuzziness))
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func fuzzyTerm(term string, fuzziness int) blevequery.Query {
	fq := bleve.NewFuzzyQuery(term)
	fq.SetFuzziness(fuzziness)
	fq.SetField(fieldContent)
	return fq
}

// termCoverage counts how many query terms each hit matches.
func (b *BleveIndex) termCoverage(ctx context.Context, terms []string, reqSize, fuzziness int) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		var q blevequery.Query
		if fuzziness > 0 {
			q = fuzzyTerm(term, fuzziness)
		} else {
			mq := bleve.NewMatchQuery(term)
			mq.SetField(fieldContent)
			q = mq
		}
		req := bleve.NewSearchRequest(q)
		req.Size = reqSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage
}

// tokenizeQuery splits query into unique lowercase terms, dropping punctuation-only words.
func tokenizeQuery(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

// DeleteDocument removes every chunk of docID.
func (b *BleveIndex) DeleteDocument(ctx context.Context, docID string) (int, error) {
	removed := 0
	for {
		q := bleve.NewTermQuery(docID)
		q.SetField(fieldDocID)
		req := bleve.NewSearchRequest(q)
		req.Size = deletePageSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return removed, fmt.Errorf("Bleve search failed: %w", err)
		}
		if len(results.Hits) == 0 {
			return removed, nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return removed, fmt.Errorf("Bleve batch failed: %w", err)
		}
		removed += len(results.Hits)
	}
}

// DocCount returns the total number of chunks in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
