package rag

import (
	"math"
	"strings"
)

// Okapi BM25 parameters.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// bm25Index holds the corpus statistics for Okapi BM25 scoring.
type bm25Index struct {
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func newBM25Index(texts []string) *bm25Index {
	idx := &bm25Index{
		termFreqs: make([]map[string]int, len(texts)),
		docLens:   make([]int, len(texts)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	total := 0
	for i, text := range texts {
		tokens := tokenize(text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			docFreq[tok]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		total += len(tokens)
	}
	if len(texts) > 0 {
		idx.avgDocLen = float64(total) / float64(len(texts))
	}

	// Terms present in more than half the corpus get a negative IDF; those
	// are floored to epsilon times the mean IDF.
	n := float64(len(texts))
	idfSum := 0.0
	var negative []string
	for tok, df := range docFreq {
		v := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		idx.idf[tok] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, tok)
		}
	}
	if len(docFreq) > 0 {
		floor := bm25Epsilon * idfSum / float64(len(docFreq))
		for _, tok := range negative {
			idx.idf[tok] = floor
		}
	}
	return idx
}

// scores returns the BM25 score of every document for the query.
func (b *bm25Index) scores(query string) []float64 {
	out := make([]float64, len(b.termFreqs))
	if b.avgDocLen == 0 {
		return out
	}
	for _, tok := range tokenize(query) {
		idf, ok := b.idf[tok]
		if !ok {
			continue
		}
		for i, freqs := range b.termFreqs {
			f := float64(freqs[tok])
			if f == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(b.docLens[i])/b.avgDocLen
			out[i] += idf * f * (bm25K1 + 1) / (f + bm25K1*norm)
		}
	}
	return out
}
