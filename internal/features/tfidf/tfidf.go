// Package tfidf implements a deterministic TF-IDF vectorizer over a shared
// vocabulary of unigrams and bigrams.
package tfidf

import (
	"errors"
	"math"
	"sort"
)

// Vectorizer builds a vocabulary from a corpus and produces L2-normalized
// sparse vectors. Fitting the same corpus always yields the same vocabulary:
// terms are capped by document frequency with an alphabetical tie-break and
// indexed in sorted order.
type Vectorizer struct {
	tokenize    func(string) []string
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
	prepared    bool
}

// New creates an unfitted vectorizer. tokenize supplies the unigram stream;
// bigrams are formed internally. maxFeatures caps the vocabulary size.
func New(tokenize func(string) []string, maxFeatures int) *Vectorizer {
	return &Vectorizer{
		tokenize:    tokenize,
		maxFeatures: maxFeatures,
	}
}

// Fit builds the vocabulary and smoothed IDF values from the corpus.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range v.terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	// Highest document frequency first; alphabetical within equal counts.
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	v.prepared = true
	return nil
}

// Vector returns the L2-normalized sparse TF-IDF vector of the text. An
// unfitted vectorizer or a text without in-vocabulary terms yields an empty
// vector.
func (v *Vectorizer) Vector(text string) map[int]float64 {
	vec := make(map[int]float64)
	if !v.prepared {
		return vec
	}

	total := 0
	for _, term := range v.terms(text) {
		if idx, ok := v.vocabulary[term]; ok {
			vec[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}

	norm := 0.0
	for idx, count := range vec {
		w := (count / float64(total)) * v.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec
}

// Cosine computes cosine similarity between two vectors produced by Vector.
// Vectors are L2-normalized, so this is a sparse dot product. An empty vector
// on either side yields 0.
func Cosine(a, b map[int]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for idx, av := range a {
		sum += av * b[idx]
	}
	return sum
}

// Size returns the fitted vocabulary size.
func (v *Vectorizer) Size() int {
	return len(v.vocabulary)
}

// terms produces unigrams plus adjacent bigrams from the token stream.
func (v *Vectorizer) terms(text string) []string {
	tokens := v.tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
