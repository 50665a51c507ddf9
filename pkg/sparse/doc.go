// Package sparse builds lexical (keyword) indexes over chunk content.
//
// It provides a BM25 index and a TF-IDF index with cosine scoring, both
// built once from a document set and immutable afterwards, plus a
// language-aware tokenizer that handles mixed Latin/CJK text. The
// hierarchy manager builds one pair of indexes per hierarchy level.
package sparse
