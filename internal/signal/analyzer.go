// Package signal classifies a message's sentiment, intimacy and intent from
// fixed lexicons. It is deterministic and fully offline: one Aho-Corasick
// automaton is compiled from all lexicons at startup and scanned per message.
package signal

import (
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"

	"github.com/hearthside/companion/internal/types"
)

type category int

const (
	catPositive category = iota
	catNegative
	catRomantic
	catSexual
	catCompliment
	categoryCount
)

// Analyzer scans messages against the fixed lexicons.
type Analyzer struct {
	ac *ahocorasick.Automaton
	// patternCats maps pattern id -> categories the pattern belongs to.
	patternCats [][]category
}

// NewAnalyzer compiles the lexicon automaton. The lexicons are fixed, so a
// compile failure is a programming error.
func NewAnalyzer() (*Analyzer, error) {
	sets := map[category][]string{
		catPositive:   positiveWords,
		catNegative:   negativeWords,
		catRomantic:   romanticWords,
		catSexual:     sexualWords,
		catCompliment: complimentWords,
	}

	index := make(map[string]int)
	var patterns []string
	var patternCats [][]category
	for cat := catPositive; cat < categoryCount; cat++ {
		for _, word := range sets[cat] {
			key := canonicalize(word)
			if key == "" {
				continue
			}
			idx, ok := index[key]
			if !ok {
				idx = len(patterns)
				index[key] = idx
				patterns = append(patterns, key)
				patternCats = append(patternCats, nil)
			}
			patternCats[idx] = append(patternCats[idx], cat)
		}
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &Analyzer{ac: ac, patternCats: patternCats}, nil
}

// Analyze classifies one message.
func (a *Analyzer) Analyze(text string) types.MessageAnalysis {
	canon := canonicalize(text)
	hits := make([]int, categoryCount)

	if canon != "" {
		haystack := []byte(canon)
		for _, m := range a.ac.FindAllOverlapping(haystack) {
			if !wordBounded(canon, m.Start, m.End) {
				continue
			}
			for _, cat := range a.patternCats[m.PatternID] {
				hits[cat]++
			}
		}
	}

	analysis := types.MessageAnalysis{
		Sentiment:  sentimentOf(hits[catPositive], hits[catNegative]),
		Romantic:   hits[catRomantic] > 0,
		Sexual:     hits[catSexual] > 0,
		Compliment: hits[catCompliment] > 0,
		Question:   isQuestion(text, canon),
	}

	intimacy := 2*hits[catSexual] + 2*hits[catRomantic] + hits[catCompliment]
	if intimacy > 5 {
		intimacy = 5
	}
	analysis.Intimacy = intimacy
	return analysis
}

func sentimentOf(positive, negative int) types.Sentiment {
	switch {
	case positive > negative:
		return types.SentimentPositive
	case negative > positive:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

func isQuestion(raw, canon string) bool {
	if strings.Contains(raw, "?") {
		return true
	}
	first, _, _ := strings.Cut(canon, " ")
	for _, opener := range interrogativeOpeners {
		if first == opener {
			return true
		}
	}
	return false
}

// canonicalize lowercases text and collapses every non-alphanumeric run into
// a single space, so multiword lexicon entries match across punctuation.
func canonicalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	lastWasSpace := true
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastWasSpace = false
			continue
		}
		if !lastWasSpace {
			out.WriteRune(' ')
			lastWasSpace = true
		}
	}
	return strings.TrimRight(out.String(), " ")
}

// wordBounded reports whether the match spans whole words in the canonical
// text, so "art" never fires inside "start".
func wordBounded(canon string, start, end int) bool {
	if start > 0 && canon[start-1] != ' ' {
		return false
	}
	if end < len(canon) && canon[end] != ' ' {
		return false
	}
	return true
}
