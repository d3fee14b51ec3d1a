// Package selector reduces a document to the excerpt most relevant to a question.
// Relevance is lexical: a paragraph scores one point for every word it shares
// with the question's term set.
package selector

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// DefaultBudget is the maximum excerpt size in characters.
const DefaultBudget = 30000

const separator = "\n\n"

var blockDelimiter = regexp.MustCompile(`\n\n+`)

// TermSet is the set of normalized question words used to score blocks.
type TermSet map[string]struct{}

// Has reports whether word is a query term.
func (t TermSet) Has(word string) bool {
	_, ok := t[word]
	return ok
}

// Sorted returns the terms in lexical order.
func (t TermSet) Sorted() []string {
	out := make([]string, 0, len(t))
	for w := range t {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// StopWords is an immutable set of words ignored on the question side.
type StopWords map[string]struct{}

// NewStopWords builds a stop-word set from a list.
func NewStopWords(words ...string) StopWords {
	s := make(StopWords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// DefaultStopWords returns the Portuguese/English stop-word list.
func DefaultStopWords() StopWords {
	return NewStopWords(
		"de", "da", "do", "e", "a", "o", "os", "as", "um", "uma",
		"para", "por", "com", "sem", "em", "no", "na", "nos", "nas",
		"que", "como", "qual", "quais", "porque",
		"the", "and", "for", "with", "without", "in", "on", "of",
	)
}

// Selector holds the selection parameters. The zero value is not usable; use New.
type Selector struct {
	stop   StopWords
	budget int
}

// Option configures a Selector.
type Option func(*Selector)

// WithBudget overrides the excerpt budget in characters.
func WithBudget(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.budget = n
		}
	}
}

// WithStopWords overrides the stop-word set.
func WithStopWords(stop StopWords) Option {
	return func(s *Selector) {
		if stop != nil {
			s.stop = stop
		}
	}
}

// New creates a Selector with the default budget and stop words.
func New(opts ...Option) *Selector {
	s := &Selector{stop: DefaultStopWords(), budget: DefaultBudget}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Budget returns the configured excerpt budget.
func (s *Selector) Budget() int { return s.budget }

var std = New()

// Select returns the excerpt of document for question using the defaults.
func Select(document, question string) string {
	return std.Select(document, question)
}

// Rank scores and orders the blocks of document using the defaults.
func Rank(document, question string) []entities.ScoredBlock {
	return std.Rank(document, question)
}

// Select packs the highest-scoring blocks, each followed by a blank line, until
// the next one would overflow the budget. When nothing fits it falls back to a
// prefix of the raw document.
func (s *Selector) Select(document, question string) string {
	var sb strings.Builder
	used := 0
	for _, b := range s.Rank(document, question) {
		n := utf8.RuneCountInString(b.Text)
		if used+n+len(separator) > s.budget {
			break
		}
		sb.WriteString(b.Text)
		sb.WriteString(separator)
		used += n + len(separator)
	}
	if sb.Len() == 0 {
		return truncate(document, s.budget)
	}
	return sb.String()
}

// Rank returns the blocks of document ordered by descending score.
// Ties keep their document order.
func (s *Selector) Rank(document, question string) []entities.ScoredBlock {
	terms := s.QueryTerms(question)
	blocks := Blocks(document)

	scored := make([]entities.ScoredBlock, len(blocks))
	for i, b := range blocks {
		scored[i] = entities.ScoredBlock{Text: b, Score: Score(b, terms), Index: i}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// QueryTerms extracts the term set of question: words longer than two
// characters that are not stop words.
func (s *Selector) QueryTerms(question string) TermSet {
	terms := make(TermSet)
	for _, tok := range Tokenize(question) {
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if _, stop := s.stop[tok]; stop {
			continue
		}
		terms[tok] = struct{}{}
	}
	return terms
}

// QueryTerms extracts the term set of question using the default stop words.
func QueryTerms(question string) TermSet {
	return std.QueryTerms(question)
}

// Blocks splits document on blank-line runs, trimming and dropping empty blocks.
func Blocks(document string) []string {
	if document == "" {
		return nil
	}
	parts := blockDelimiter.Split(document, -1)
	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}

// Score counts the words of block that belong to terms. Repeated words count
// once per occurrence.
func Score(block string, terms TermSet) int {
	if len(terms) == 0 {
		return 0
	}
	score := 0
	for _, tok := range Tokenize(block) {
		if terms.Has(tok) {
			score++
		}
	}
	return score
}

// Tokenize lowercases text and splits it on runs of anything that is not a
// Unicode letter or number.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
