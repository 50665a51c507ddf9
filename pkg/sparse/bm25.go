package sparse

import (
	"math"
	"sort"
)

// BM25 defaults.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Document is one indexable unit of content.
type Document struct {
	ID      string
	Content string
}

// Hit is one scored match. Scores are min-max normalized to [0,1]
// within a single search.
type Hit struct {
	ID    string
	Score float64
}

// BM25Index is an immutable BM25 index over a document set.
type BM25Index struct {
	k1        float64
	b         float64
	tokenizer Tokenizer

	ids     []string
	termFcy []map[string]int // term frequency per document
	docLen  []int
	avgLen  float64
	docFcy  map[string]int // number of documents containing each term
}

// NewBM25Index tokenizes and indexes docs. A nil tokenizer uses
// DefaultTokenizer; non-positive k1/b fall back to the defaults.
func NewBM25Index(docs []Document, tokenizer Tokenizer, k1, b float64) *BM25Index {
	if tokenizer == nil {
		tokenizer = DefaultTokenizer{}
	}
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}

	idx := &BM25Index{
		k1:        k1,
		b:         b,
		tokenizer: tokenizer,
		ids:       make([]string, 0, len(docs)),
		termFcy:   make([]map[string]int, 0, len(docs)),
		docLen:    make([]int, 0, len(docs)),
		docFcy:    make(map[string]int),
	}

	var totalLen int
	for _, doc := range docs {
		tokens := tokenizer.Tokenize(doc.Content)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			idx.docFcy[term]++
		}
		idx.ids = append(idx.ids, doc.ID)
		idx.termFcy = append(idx.termFcy, tf)
		idx.docLen = append(idx.docLen, len(tokens))
		totalLen += len(tokens)
	}
	if len(docs) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(docs))
	}
	return idx
}

// Size returns the number of indexed documents.
func (idx *BM25Index) Size() int {
	return len(idx.ids)
}

// Search scores all documents against query and returns the topK best,
// scores normalized to [0,1]. An empty query or empty index returns nil.
func (idx *BM25Index) Search(query string, topK int) []Hit {
	if len(idx.ids) == 0 || topK <= 0 {
		return nil
	}
	queryTerms := idx.tokenizer.Tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	n := float64(len(idx.ids))
	scores := make([]float64, len(idx.ids))
	for _, term := range queryTerms {
		df, ok := idx.docFcy[term]
		if !ok {
			continue
		}
		idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
		for i, tf := range idx.termFcy {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := 1.0 - idx.b + idx.b*float64(idx.docLen[i])/idx.avgLen
			scores[i] += idf * (f * (idx.k1 + 1.0)) / (f + idx.k1*norm)
		}
	}

	hits := make([]Hit, 0, len(idx.ids))
	for i, s := range scores {
		if s > 0 {
			hits = append(hits, Hit{ID: idx.ids[i], Score: s})
		}
	}
	hits = sortAndTruncate(hits, topK)
	normalizeHits(hits)
	return hits
}

// sortAndTruncate orders hits by descending score with a deterministic
// ID tie-break, then truncates in place to topK.
func sortAndTruncate(hits []Hit, topK int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// normalizeHits rescales scores so the best hit is 1.0.
func normalizeHits(hits []Hit) {
	if len(hits) == 0 {
		return
	}
	max := hits[0].Score
	if max <= 0 {
		return
	}
	for i := range hits {
		hits[i].Score /= max
	}
}
