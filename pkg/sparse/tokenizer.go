package sparse

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into index terms.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Stop words filtered from both Latin and CJK text.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
	"的": true, "了": true, "和": true, "是": true, "在": true, "有": true,
	"我": true, "们": true, "对": true, "等": true,
}

// DefaultTokenizer lowercases Latin text, splits on non-alphanumeric
// runes, and emits overlapping bigrams for CJK runs so that Chinese
// policy text is searchable without a segmenter.
type DefaultTokenizer struct{}

var _ Tokenizer = DefaultTokenizer{}

// Tokenize implements Tokenizer.
func (DefaultTokenizer) Tokenize(text string) []string {
	var tokens []string
	var latin []rune
	var cjk []rune

	flushLatin := func() {
		if len(latin) == 0 {
			return
		}
		word := strings.ToLower(string(latin))
		if !stopWords[word] {
			tokens = append(tokens, word)
		}
		latin = latin[:0]
	}
	flushCJK := func() {
		if len(cjk) == 1 {
			if ch := string(cjk[0]); !stopWords[ch] {
				tokens = append(tokens, ch)
			}
		}
		for i := 0; i+1 < len(cjk); i++ {
			bigram := string(cjk[i : i+2])
			if !stopWords[bigram] {
				tokens = append(tokens, bigram)
			}
		}
		cjk = cjk[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushLatin()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			latin = append(latin, r)
		default:
			flushLatin()
			flushCJK()
		}
	}
	flushLatin()
	flushCJK()

	return tokens
}
