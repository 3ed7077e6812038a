package audit

import (
	"iter"
	"regexp"
	"strings"
)

// Matcher names, in priority order
const (
	MatcherDirect      = "direct"
	MatcherDeclaration = "declaration"
	MatcherField       = "field"
	MatcherBareBrace   = "bare_brace"
)

var (
	clientAnchorRe = regexp.MustCompile(`\{\s*(?:"client"|'client'|client)\s*:`)
	bareBraceRe    = regexp.MustCompile(`\{[^{}]*\}`)
)

// Candidate is a region of model output believed to hold one object
type Candidate struct {
	Text    string
	Matcher string // diagnostics only
	Strict  bool   // parse as-is, no repairs
}

// Matcher finds at most one candidate in raw model output
type Matcher interface {
	Name() string
	Find(raw string) (Candidate, bool)
}

// Extractor runs its matchers in priority order
type Extractor struct {
	matchers []Matcher
}

// NewExtractor builds the standard matcher chain. declarationName is the
// variable the declaration matcher looks for.
func NewExtractor(declarationName string) *Extractor {
	if declarationName == "" {
		declarationName = DefaultDeclarationName
	}
	return NewExtractorWith(
		directMatcher{},
		newDeclarationMatcher(declarationName),
		fieldMatcher{},
		bareBraceMatcher{},
	)
}

// NewExtractorWith builds an extractor over an explicit matcher list
func NewExtractorWith(matchers ...Matcher) *Extractor {
	return &Extractor{matchers: matchers}
}

// Candidates yields at most one candidate per matcher, lazily and in order.
// Consumers stop ranging once a candidate is accepted.
func (e *Extractor) Candidates(raw string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, m := range e.matchers {
			c, ok := m.Find(raw)
			if !ok {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// directMatcher treats the whole reply as one JSON document
type directMatcher struct{}

func (directMatcher) Name() string { return MatcherDirect }

func (m directMatcher) Find(raw string) (Candidate, bool) {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "{") {
		return Candidate{}, false
	}
	return Candidate{Text: text, Matcher: m.Name(), Strict: true}, true
}

// declarationMatcher captures the object in `const <name> = {...};`
type declarationMatcher struct {
	re *regexp.Regexp
}

func newDeclarationMatcher(name string) declarationMatcher {
	return declarationMatcher{
		re: regexp.MustCompile(`\b(?:const|let|var)\s+` + regexp.QuoteMeta(name) + `\s*=\s*(\{[\s\S]*?\})\s*;`),
	}
}

func (declarationMatcher) Name() string { return MatcherDeclaration }

func (m declarationMatcher) Find(raw string) (Candidate, bool) {
	sub := m.re.FindStringSubmatch(raw)
	if sub == nil {
		return Candidate{}, false
	}
	return Candidate{Text: sub[1], Matcher: m.Name()}, true
}

// fieldMatcher captures the first object whose first key is client
type fieldMatcher struct{}

func (fieldMatcher) Name() string { return MatcherField }

func (m fieldMatcher) Find(raw string) (Candidate, bool) {
	loc := clientAnchorRe.FindStringIndex(raw)
	if loc == nil {
		return Candidate{}, false
	}
	start := loc[0]
	if end, ok := matchingBrace(raw, start); ok {
		return Candidate{Text: raw[start : end+1], Matcher: m.Name()}, true
	}
	// unbalanced region: shortest span up to the next closing brace
	rel := strings.IndexByte(raw[loc[1]:], '}')
	if rel < 0 {
		return Candidate{}, false
	}
	return Candidate{Text: raw[start : loc[1]+rel+1], Matcher: m.Name()}, true
}

// bareBraceMatcher captures the first brace span with no nested braces
type bareBraceMatcher struct{}

func (bareBraceMatcher) Name() string { return MatcherBareBrace }

func (m bareBraceMatcher) Find(raw string) (Candidate, bool) {
	text := bareBraceRe.FindString(raw)
	if text == "" {
		return Candidate{}, false
	}
	return Candidate{Text: text, Matcher: m.Name()}, true
}

// matchingBrace returns the index of the '}' that closes the '{' at start.
// String literals (either quote) and comments are skipped.
func matchingBrace(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '/':
			if i+1 >= len(s) {
				continue
			}
			if s[i+1] == '/' {
				nl := strings.IndexByte(s[i:], '\n')
				if nl < 0 {
					return 0, false
				}
				i += nl
			} else if s[i+1] == '*' {
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return 0, false
				}
				i += end + 3
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
