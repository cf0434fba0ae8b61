package search

import (
	"sort"

	"github.com/hyperjump/apiquery/internal/keyword"
	"github.com/hyperjump/apiquery/internal/models"
)

// FusedResult holds a record ID and fused keyword/semantic scores.
type FusedResult struct {
	ID            string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores normalizes keyword scores to [0,1] by max.
func NormalizeKeywordScores(results []*keyword.KeywordResult) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// NormalizeSemanticScores converts cosine distances to similarities clamped to [0,1].
func NormalizeSemanticScores(records []*models.Record) map[string]float64 {
	normalized := make(map[string]float64, len(records))
	for _, r := range records {
		s := 1 - r.Distance
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		normalized[r.ID] = s
	}
	return normalized
}

// Fuse merges keyword and semantic score maps with weights and returns results by
// descending score; equal scores are ordered by ID.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*FusedResult {
	scoreMap := make(map[string]*FusedResult, len(keywordScores)+len(semanticScores))
	for id, score := range keywordScores {
		scoreMap[id] = &FusedResult{ID: id, KeywordScore: score}
	}
	for id, score := range semanticScores {
		if result, exists := scoreMap[id]; exists {
			result.SemanticScore = score
		} else {
			scoreMap[id] = &FusedResult{ID: id, SemanticScore: score}
		}
	}
	results := make([]*FusedResult, 0, len(scoreMap))
	for _, result := range scoreMap {
		result.Score = (keywordWeight * result.KeywordScore) + (semanticWeight * result.SemanticScore)
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results
}
