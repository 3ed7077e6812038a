package audit

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ValidJSONIsUnchanged(t *testing.T) {
	inputs := []string{
		`{"a": 1}`,
		"{\n  \"client\": \"Joe's \\\"Best\\\" Cafe\",\n  \"url\": \"https://example.com/a//b\",\n  \"path\": \"C:\\\\temp\\\\\",\n  \"n\": 1.5,\n  \"list\": [\"a\", \"b, c: d\"]\n}",
		`{"nested": {"k": [true, false, null]}, "emoji": "\u00e9t\u00e9"}`,
		`{"comment": "/* not a comment */", "tail": "x,}"}`,
	}

	n := NewNormalizer(false)
	for _, in := range inputs {
		t.Run(in[:min(len(in), 20)], func(t *testing.T) {
			got, err := n.Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, in, got.Text)

			var want any
			dec := json.NewDecoder(strings.NewReader(in))
			dec.UseNumber()
			require.NoError(t, dec.Decode(&want))
			if diff := cmp.Diff(want, got.Value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_Repairs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{
			name: "comments bare keys trailing commas",
			in: `{
  // leading comment
  client: 'Acme', /* block
  comment */ score: 61,
  tips: ["a", "b",],
}`,
			want: map[string]any{
				"client": "Acme",
				"score":  json.Number("61"),
				"tips":   []any{"a", "b"},
			},
		},
		{
			name: "single quotes around double quotes",
			in:   `{name: 'say "hi"', it: 'it\'s'}`,
			want: map[string]any{"name": `say "hi"`, "it": "it's"},
		},
		{
			name: "url survives comment stripping",
			in:   "{site: \"https://acme.test/path\", // comment\n n: 1}",
			want: map[string]any{"site": "https://acme.test/path", "n": json.Number("1")},
		},
		{
			name: "escaped quotes kept",
			in:   `{quote: "He said \"hi\""}`,
			want: map[string]any{"quote": `He said "hi"`},
		},
		{
			name: "escaped backslash before closing quote",
			in:   `{path: "C:\\dir\\", next: "x"}`,
			want: map[string]any{"path": `C:\dir\`, "next": "x"},
		},
		{
			name: "dollar and underscore keys",
			in:   `{$ref: 1, _id: 2}`,
			want: map[string]any{"$ref": json.Number("1"), "_id": json.Number("2")},
		},
		{
			name: "colon inside string value is not a key",
			in:   `{a: "b, c: d"}`,
			want: map[string]any{"a": "b, c: d"},
		},
	}

	n := NewNormalizer(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.Value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, json.Valid([]byte(got.Text)), "normalized text must be JSON: %s", got.Text)
		})
	}
}

func TestNormalize_Failure(t *testing.T) {
	in := `{client: "Acme", tips: ["a"`

	_, err := NewNormalizer(false).Normalize(in)

	var nerr *NormalizationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, PhaseDocument, nerr.Phase)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotEmpty(t, nerr.Context)
	assert.LessOrEqual(t, len(nerr.Context), 2*contextWindow)
}

func TestNormalize_SyntaxErrorOffset(t *testing.T) {
	in := `{"a": 1 "b": 2}`

	_, err := NewNormalizer(false).Normalize(in)

	var nerr *NormalizationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, PhaseDocument, nerr.Phase)
	assert.Positive(t, nerr.Offset)
	assert.Contains(t, nerr.Context, `"b"`)
}

func TestParse_Strict(t *testing.T) {
	n := NewNormalizer(false)

	got, err := n.Parse(`{"a": [1, 2]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{json.Number("1"), json.Number("2")}}, got.Value)

	_, err = n.Parse(`{a: 1}`)
	var nerr *NormalizationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, PhaseStrict, nerr.Phase)

	_, err = n.Parse(`{"a": 1} and then some prose`)
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, PhaseStrict, nerr.Phase)
	assert.Contains(t, nerr.Error(), "unexpected data after top-level value")
}

func TestNormalize_LenientRepair(t *testing.T) {
	in := `{client: "Acme", tips: ["a", "b"`

	_, err := NewNormalizer(false).Normalize(in)
	require.Error(t, err)

	got, err := NewNormalizer(true).Normalize(in)
	require.NoError(t, err)
	obj, ok := got.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme", obj["client"])
	assert.Equal(t, []any{"a", "b"}, obj["tips"])
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a // x\nb", "a \nb"},
		{"a /* x */b", "a b"},
		{`"//keep" // drop`, `"//keep" `},
		{`'/* keep */'`, `'/* keep */'`},
		{"a /* never closed", "a "},
		{`"esc \" // still string"`, `"esc \" // still string"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripComments(tt.in), "input %q", tt.in)
	}
}
