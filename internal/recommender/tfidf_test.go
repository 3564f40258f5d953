package recommender

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var sampleDocs = []string{
	"wireless bluetooth headphones with noise cancelling",
	"ergonomic office chair with lumbar support",
	"stainless steel water bottle keeps drinks cold",
	"wireless charging pad for phones",
}

func TestVectorizerFitIsDeterministic(t *testing.T) {
	v1 := NewVectorizer(0)
	v2 := NewVectorizer(0)

	m1 := v1.Fit(sampleDocs)
	m2 := v2.Fit(sampleDocs)

	require.Equal(t, v1.Vocabulary, v2.Vocabulary)
	require.Equal(t, v1.IDF, v2.IDF)
	require.Equal(t, m1, m2)
}

func TestVectorizerDropsStopWords(t *testing.T) {
	v := NewVectorizer(0)
	v.Fit(sampleDocs)

	require.NotContains(t, v.Vocabulary, "with")
	require.NotContains(t, v.Vocabulary, "for")
	require.Contains(t, v.Vocabulary, "wireless")
}

func TestVectorizerIncludesBigrams(t *testing.T) {
	v := NewVectorizer(0)
	v.Fit(sampleDocs)

	require.Contains(t, v.Vocabulary, "wireless bluetooth")
	require.Contains(t, v.Vocabulary, "noise cancelling")
}

func TestVectorizerBoundsVocabulary(t *testing.T) {
	v := NewVectorizer(5)
	v.Fit(sampleDocs)

	require.LessOrEqual(t, len(v.Vocabulary), 5)
	require.Len(t, v.IDF, len(v.Vocabulary))
}

func TestTransformVectorsAreUnitLength(t *testing.T) {
	v := NewVectorizer(0)
	matrix := v.Fit(sampleDocs)

	for i, row := range matrix {
		var norm float64
		for _, value := range row {
			norm += value * value
		}
		require.InDelta(t, 1.0, math.Sqrt(norm), 1e-9, "row %d", i)
	}

	vec := v.Transform("wireless headphones")
	var norm float64
	for _, value := range vec {
		norm += value * value
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestTransformUnknownTermsYieldZeroVector(t *testing.T) {
	v := NewVectorizer(0)
	v.Fit(sampleDocs)

	vec := v.Transform("zzzz qqqq")
	for _, value := range vec {
		require.Zero(t, value)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}

	require.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
	require.Zero(t, cosineSimilarity(a, b))
	require.Zero(t, cosineSimilarity(a, []float64{1, 0}))
	require.Zero(t, cosineSimilarity(a, []float64{0, 0, 0}))
}

func TestNormalizeToken(t *testing.T) {
	require.Equal(t, "hello", normalizeToken("Hello!"))
	require.Equal(t, "usbc", normalizeToken("USB-C"))
	require.Equal(t, "42", normalizeToken("4.2"))
}
