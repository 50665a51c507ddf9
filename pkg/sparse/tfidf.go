package sparse

import (
	"math"
)

// TFIDFIndex is an immutable TF-IDF index scored by cosine similarity.
type TFIDFIndex struct {
	tokenizer Tokenizer

	ids     []string
	vectors []map[string]float64 // l2-normalized tf-idf vectors
	idf     map[string]float64
}

// NewTFIDFIndex tokenizes and indexes docs. A nil tokenizer uses
// DefaultTokenizer.
func NewTFIDFIndex(docs []Document, tokenizer Tokenizer) *TFIDFIndex {
	if tokenizer == nil {
		tokenizer = DefaultTokenizer{}
	}

	idx := &TFIDFIndex{
		tokenizer: tokenizer,
		ids:       make([]string, 0, len(docs)),
		vectors:   make([]map[string]float64, 0, len(docs)),
		idf:       make(map[string]float64),
	}

	termFcy := make([]map[string]int, 0, len(docs))
	docFcy := make(map[string]int)
	for _, doc := range docs {
		tokens := tokenizer.Tokenize(doc.Content)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			docFcy[term]++
		}
		idx.ids = append(idx.ids, doc.ID)
		termFcy = append(termFcy, tf)
	}

	n := float64(len(docs))
	for term, df := range docFcy {
		idx.idf[term] = math.Log(n/float64(df)) + 1.0
	}

	for _, tf := range termFcy {
		vec := make(map[string]float64, len(tf))
		for term, f := range tf {
			vec[term] = float64(f) * idx.idf[term]
		}
		l2Normalize(vec)
		idx.vectors = append(idx.vectors, vec)
	}
	return idx
}

// Size returns the number of indexed documents.
func (idx *TFIDFIndex) Size() int {
	return len(idx.ids)
}

// Search scores all documents by cosine similarity to the query vector
// and returns the topK best, scores normalized to [0,1].
func (idx *TFIDFIndex) Search(query string, topK int) []Hit {
	if len(idx.ids) == 0 || topK <= 0 {
		return nil
	}
	tokens := idx.tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	qtf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		qtf[tok]++
	}
	qvec := make(map[string]float64, len(qtf))
	for term, f := range qtf {
		if w, ok := idx.idf[term]; ok {
			qvec[term] = float64(f) * w
		}
	}
	if len(qvec) == 0 {
		return nil
	}
	l2Normalize(qvec)

	hits := make([]Hit, 0, len(idx.ids))
	for i, vec := range idx.vectors {
		var dot float64
		for term, qw := range qvec {
			if dw, ok := vec[term]; ok {
				dot += qw * dw
			}
		}
		if dot > 0 {
			hits = append(hits, Hit{ID: idx.ids[i], Score: dot})
		}
	}
	hits = sortAndTruncate(hits, topK)
	normalizeHits(hits)
	return hits
}

func l2Normalize(vec map[string]float64) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for term, w := range vec {
		vec[term] = w / norm
	}
}
