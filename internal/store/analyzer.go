package store

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// ProfileTokenizerName is the registry name of the word tokenizer.
	ProfileTokenizerName = "profile_words"

	// ProfileAnalyzerName is the registry name of the profile analyzer.
	ProfileAnalyzerName = "profile_analyzer"

	// profileTokenPattern keeps runs of two or more word characters.
	profileTokenPattern = `[\p{L}\p{N}_]{2,}`
)

// Analyzer turns text into the unigram and bigram terms of the lexical index:
// word tokens, lowercased, English stop words removed, bigrams formed over
// the remaining sequence.
type Analyzer struct {
	analyzer analysis.Analyzer
	ngramMax int
}

var (
	profileAnalyzerOnce sync.Once
	profileAnalyzer     analysis.Analyzer
	profileAnalyzerErr  error
)

// sharedAnalyzer builds the bleve analyzer once. Bleve analyzers are safe for
// concurrent use.
func sharedAnalyzer() (analysis.Analyzer, error) {
	profileAnalyzerOnce.Do(func() {
		cache := registry.NewCache()
		_, err := cache.DefineTokenizer(ProfileTokenizerName, map[string]interface{}{
			"type":   regexp.Name,
			"regexp": profileTokenPattern,
		})
		if err != nil {
			profileAnalyzerErr = fmt.Errorf("failed to define tokenizer: %w", err)
			return
		}
		profileAnalyzer, err = cache.DefineAnalyzer(ProfileAnalyzerName, map[string]interface{}{
			"type":      custom.Name,
			"tokenizer": ProfileTokenizerName,
			"token_filters": []string{
				lowercase.Name,
				en.StopName,
			},
		})
		if err != nil {
			profileAnalyzerErr = fmt.Errorf("failed to define analyzer: %w", err)
		}
	})
	return profileAnalyzer, profileAnalyzerErr
}

// NewAnalyzer creates an analyzer emitting n-grams up to ngramMax words.
func NewAnalyzer(ngramMax int) (*Analyzer, error) {
	a, err := sharedAnalyzer()
	if err != nil {
		return nil, err
	}
	if ngramMax < 1 {
		ngramMax = 1
	}
	return &Analyzer{analyzer: a, ngramMax: ngramMax}, nil
}

// Words returns the filtered word tokens of text in order.
func (a *Analyzer) Words(text string) []string {
	stream := a.analyzer.Analyze([]byte(text))
	words := make([]string, 0, len(stream))
	for _, tok := range stream {
		words = append(words, string(tok.Term))
	}
	return words
}

// Terms returns all unigrams followed by all bigrams of text.
func (a *Analyzer) Terms(text string) []string {
	words := a.Words(text)
	if a.ngramMax < 2 || len(words) < 2 {
		return words
	}
	terms := make([]string, 0, 2*len(words)-1)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}
