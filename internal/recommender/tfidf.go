package recommender

import (
	"math"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Vectorizer is a TF-IDF model over unigrams and bigrams with a bounded
// vocabulary and English stop words removed. Fields are exported so a fitted
// model round-trips through gob with identical output vectors.
type Vectorizer struct {
	MaxFeatures int
	Vocabulary  map[string]int
	IDF         []float64
}

func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Fit builds the vocabulary and IDF weights from docs and returns the
// feature matrix, one L2-normalized row per document.
func (v *Vectorizer) Fit(docs []string) [][]float64 {
	termCounts := make(map[string]int)
	docFreq := make(map[string]int)
	docTerms := make([][]string, len(docs))

	for i, doc := range docs {
		terms := extractTerms(doc)
		docTerms[i] = terms

		seen := make(map[string]bool)
		for _, term := range terms {
			termCounts[term]++
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	// Keep the most frequent terms; ties broken lexically so fitting is
	// deterministic across runs.
	terms := make([]string, 0, len(termCounts))
	for term := range termCounts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termCounts[terms[i]] != termCounts[terms[j]] {
			return termCounts[terms[i]] > termCounts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	v.Vocabulary = make(map[string]int, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
	}

	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for term, idx := range v.Vocabulary {
		df := float64(docFreq[term])
		v.IDF[idx] = math.Log((1+n)/(1+df)) + 1
	}

	matrix := make([][]float64, len(docs))
	for i, terms := range docTerms {
		matrix[i] = v.vectorize(terms)
	}
	return matrix
}

// Transform vectorizes one text with the fitted vocabulary.
func (v *Vectorizer) Transform(text string) []float64 {
	return v.vectorize(extractTerms(text))
}

func (v *Vectorizer) Fitted() bool {
	return v.Vocabulary != nil
}

func (v *Vectorizer) vectorize(terms []string) []float64 {
	vec := make([]float64, len(v.IDF))
	for _, term := range terms {
		if idx, ok := v.Vocabulary[term]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.IDF[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// extractTerms tokenizes text and expands the token stream into unigrams
// plus bigrams.
func extractTerms(text string) []string {
	tokens := tokenize(text)

	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)

	var raw []string
	if err != nil {
		raw = strings.Fields(text)
	} else {
		for _, tok := range doc.Tokens() {
			raw = append(raw, tok.Text)
		}
	}

	tokens := make([]string, 0, len(raw))
	for _, word := range raw {
		word = normalizeToken(word)
		if len(word) < 2 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func normalizeToken(word string) string {
	word = strings.ToLower(word)
	var b strings.Builder
	for _, r := range word {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var stopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "because": true, "been": true,
	"before": true, "being": true, "below": true, "between": true, "both": true,
	"but": true, "by": true, "can": true, "did": true, "do": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true,
	"few": true, "for": true, "from": true, "further": true, "had": true,
	"has": true, "have": true, "having": true, "he": true, "her": true,
	"here": true, "hers": true, "him": true, "his": true, "how": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "just": true, "me": true, "more": true, "most": true,
	"my": true, "no": true, "nor": true, "not": true, "now": true,
	"of": true, "off": true, "on": true, "once": true, "only": true,
	"or": true, "other": true, "our": true, "out": true, "over": true,
	"own": true, "same": true, "she": true, "should": true, "so": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true,
	"too": true, "under": true, "until": true, "up": true, "very": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "who": true, "whom": true,
	"why": true, "will": true, "with": true, "you": true, "your": true,
}
