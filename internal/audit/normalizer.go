package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// quoteSentinel stands in for already-escaped quotes while the rest of the
// text is escaped. U+E000 is a private-use code point.
const quoteSentinel = "\uE000"

const contextWindow = 30

// NormalizedText is a repaired candidate together with its decoded value.
// Numbers are decoded as json.Number.
type NormalizedText struct {
	Text  string
	Value any
}

// Normalizer repairs lenient JavaScript object literals into JSON
type Normalizer struct {
	lenient bool
}

// NewNormalizer creates a normalizer. With lenient set, candidates the
// explicit repairs cannot fix get one more attempt through jsonrepair.
func NewNormalizer(lenient bool) *Normalizer {
	return &Normalizer{lenient: lenient}
}

// Normalize applies the repair steps in order and decodes the result.
// Failures are returned as *NormalizationError.
func (n *Normalizer) Normalize(candidate string) (*NormalizedText, error) {
	out, err := repair(candidate)
	if err == nil || !n.lenient {
		return out, err
	}

	fixed, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return nil, err
	}
	value, decodeErr := decodeDocument(fixed, PhaseDocument)
	if decodeErr != nil {
		return nil, err
	}
	return &NormalizedText{Text: fixed, Value: value}, nil
}

// Parse decodes text that must already be valid JSON
func (n *Normalizer) Parse(text string) (*NormalizedText, error) {
	value, err := decodeDocument(text, PhaseStrict)
	if err != nil {
		return nil, err
	}
	return &NormalizedText{Text: text, Value: value}, nil
}

func repair(candidate string) (*NormalizedText, error) {
	s := stripComments(candidate)
	s = doubleQuoteStrings(s)

	// Escape the text so it can be decoded as one JSON string literal,
	// keeping escaped quotes escaped.
	s = strings.ReplaceAll(s, `\"`, quoteSentinel)
	s = escapeLiteral(s)
	s = strings.ReplaceAll(s, quoteSentinel, `\\\"`)

	s = quoteBareKeys(s)
	s = removeTrailingCommas(s)

	text, err := decodeLiteral(s)
	if err != nil {
		return nil, err
	}
	value, err := decodeDocument(text, PhaseDocument)
	if err != nil {
		return nil, err
	}
	return &NormalizedText{Text: text, Value: value}, nil
}

// stripComments removes /* */ and // comments outside string literals
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
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
		if c == '"' || c == '\'' {
			quote = c
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				nl := strings.IndexByte(s[i:], '\n')
				if nl < 0 {
					return b.String()
				}
				i += nl - 1 // the newline itself is kept
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return b.String()
				}
				i += end + 3
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// doubleQuoteStrings rewrites 'single quoted' literals as "double quoted"
func doubleQuoteStrings(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inDouble, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inDouble {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inDouble = false
			}
			continue
		}
		if c == '"' {
			inDouble = true
			b.WriteByte(c)
			continue
		}
		if c != '\'' {
			b.WriteByte(c)
			continue
		}

		end, body := singleQuoted(s, i+1)
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteByte('"')
		b.WriteString(body)
		b.WriteByte('"')
		i = end
	}
	return b.String()
}

// singleQuoted scans a single-quoted literal starting after its opening
// quote and returns the index of the closing quote and the body rewritten
// for double quotes. end is -1 when the literal never closes.
func singleQuoted(s string, from int) (end int, body string) {
	var b strings.Builder
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			if s[i+1] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
			}
			i++
		case c == '"':
			b.WriteString(`\"`)
		case c == '\'':
			return i, b.String()
		default:
			b.WriteByte(c)
		}
	}
	return -1, ""
}

// escapeLiteral escapes backslashes and double quotes. Control characters
// are left alone until decodeLiteral so later steps still see whitespace.
func escapeLiteral(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// escapedByte returns the byte of the original text at position i of
// escaped text, and how many escaped bytes encode it.
func escapedByte(s string, i int) (byte, int) {
	if s[i] == '\\' && i+1 < len(s) {
		return s[i+1], 2
	}
	return s[i], 1
}

// quoteBareKeys wraps identifier keys that follow '{' or ',' in quotes.
// It works on escaped text, so the quotes it adds are escaped too.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 32)
	inString, escaped, expectKey := false, false, false
	for i := 0; i < len(s); {
		c, width := escapedByte(s, i)
		quoted := width == 2

		if inString {
			b.WriteString(s[i : i+width])
			i += width
			switch {
			case escaped:
				escaped = false
			case quoted && c == '\\':
				escaped = true
			case quoted && c == '"':
				inString = false
			}
			continue
		}

		if quoted && c == '"' {
			inString, expectKey = true, false
			b.WriteString(s[i : i+width])
			i += width
			continue
		}

		if expectKey && !quoted && isIdentByte(c) {
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteString(`\"`)
				b.WriteString(s[i:j])
				b.WriteString(`\"`)
				i, expectKey = j, false
				continue
			}
		}

		switch {
		case !quoted && (c == '{' || c == ','):
			expectKey = true
		case !isSpace(c):
			expectKey = false
		}
		b.WriteString(s[i : i+width])
		i += width
	}
	return b.String()
}

// removeTrailingCommas drops commas directly followed by '}' or ']'.
// Like quoteBareKeys it works on escaped text.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); {
		c, width := escapedByte(s, i)
		quoted := width == 2

		if inString {
			switch {
			case escaped:
				escaped = false
			case quoted && c == '\\':
				escaped = true
			case quoted && c == '"':
				inString = false
			}
		} else if quoted && c == '"' {
			inString = true
		} else if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				i++
				continue
			}
		}
		b.WriteString(s[i : i+width])
		i += width
	}
	return b.String()
}

// decodeLiteral wraps escaped text in quotes and decodes it as a JSON string
func decodeLiteral(escaped string) (string, error) {
	var b strings.Builder
	b.Grow(len(escaped) + 2)
	b.WriteByte('"')
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		switch {
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	literal := b.String()

	var text string
	if err := json.Unmarshal([]byte(literal), &text); err != nil {
		offset := errorOffset(err, int64(len(literal)))
		return "", &NormalizationError{
			Phase:   PhaseLiteral,
			Offset:  offset,
			Context: contextAround(literal, offset),
			Err:     err,
		}
	}
	return text, nil
}

// decodeDocument decodes exactly one JSON value from text
func decodeDocument(text, phase string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		offset := errorOffset(err, dec.InputOffset())
		if errors.Is(err, io.ErrUnexpectedEOF) {
			offset = int64(len(text))
		}
		return nil, &NormalizationError{Phase: phase, Offset: offset, Context: contextAround(text, offset), Err: err}
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		offset := dec.InputOffset()
		return nil, &NormalizationError{
			Phase:   phase,
			Offset:  offset,
			Context: contextAround(text, offset),
			Err:     errors.New("unexpected data after top-level value"),
		}
	}
	return value, nil
}

func errorOffset(err error, fallback int64) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return fallback
}

func contextAround(s string, offset int64) string {
	start := max(0, int(offset)-contextWindow)
	end := min(len(s), int(offset)+contextWindow)
	if start > end {
		start = end
	}
	return s[start:end]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
