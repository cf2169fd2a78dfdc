package ranking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

const textField = "text"

// BleveScorer rates fragments by lexical relevance. Every call builds a
// throwaway in-memory index, so no state is shared between calls.
type BleveScorer struct{}

func NewBleveScorer() *BleveScorer {
	return &BleveScorer{}
}

// Score implements Scorer. Fragments sharing no analyzed term with query score 0.
func (s *BleveScorer) Score(ctx context.Context, fragments []string, query string) ([]float64, error) {
	scores := make([]float64, len(fragments))
	if len(fragments) == 0 || strings.TrimSpace(query) == "" {
		return scores, nil
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, fragment := range fragments {
		if err := batch.Index(strconv.Itoa(i), map[string]any{textField: fragment}); err != nil {
			return nil, fmt.Errorf("index fragment %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("index fragments: %w", err)
	}

	match := bleve.NewMatchQuery(query)
	match.SetField(textField)

	request := bleve.NewSearchRequestOptions(match, len(fragments), 0, false)
	result, err := index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search fragments: %w", err)
	}

	for _, hit := range result.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(scores) {
			continue
		}
		scores[i] = hit.Score
	}

	return scores, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName

	fragmentMapping := bleve.NewDocumentMapping()
	fragmentMapping.AddFieldMappingsAt(textField, textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = fragmentMapping
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	return indexMapping
}
