package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := "# Title\n\nHello\n"

	fm, body, had := Split(input)
	require.False(t, had)
	require.Zero(t, fm.Len())
	require.Equal(t, input, body)
}

func TestSplit_SplitsFieldsAndBody(t *testing.T) {
	input := "---\ntitle: Hello\nlayout: custom.layout\n---\n<p>body</p>\n"

	fm, body, had := Split(input)
	require.True(t, had)
	require.Equal(t, "<p>body</p>\n", body)
	require.Equal(t, []Field{{"title", "Hello"}, {"layout", "custom.layout"}}, fm.Fields())
}

func TestSplit_LeadingWhitespaceIsTrimmed(t *testing.T) {
	fm, body, had := Split("\n\n  ---\nkey: value\n---\nbody")
	require.True(t, had)
	require.Equal(t, "body", body)
	v, ok := fm.Get("key")
	require.True(t, ok)
	require.Equal(t, "value", v)
}

func TestSplit_ValuesKeepLaterColonsAndAreNotCoerced(t *testing.T) {
	fm, _, had := Split("---\nurl: https://example.com:8080/x\ncount:  42 \nflag: true\n---\n")
	require.True(t, had)
	require.Equal(t, map[string]string{
		"url":   "https://example.com:8080/x",
		"count": "42",
		"flag":  "true",
	}, fm.Map())
}

func TestSplit_WithoutBodyIsLegal(t *testing.T) {
	fm, body, had := Split("---\ntitle: Only\n---")
	require.True(t, had)
	require.Empty(t, body)
	require.Equal(t, 1, fm.Len())
}

func TestSplit_MissingClosingDelimiterMeansAbsent(t *testing.T) {
	input := "---\nkey: value\n# Title\n"

	fm, body, had := Split(input)
	require.False(t, had)
	require.Zero(t, fm.Len())
	require.Equal(t, input, body)
}

func TestSplit_DelimiterMustBeWholeLine(t *testing.T) {
	for _, input := range []string{
		"----\nkey: value\n----\nbody",
		"---title: x\n---\nbody",
		"---\nkey: value\n----\nbody",
		"---\nkey: value\n--- end\nbody",
	} {
		fm, body, had := Split(input)
		require.False(t, had, input)
		require.Zero(t, fm.Len(), input)
		require.Equal(t, input, body)
	}

	fm, body, had := Split("---  \nkey: value\n---\t\n<p>x</p>")
	require.True(t, had)
	require.Equal(t, "<p>x</p>", body)
	require.Equal(t, map[string]string{"key": "value"}, fm.Map())

	fm, body, had = Split("---\nrule: ----\n---\nbody")
	require.True(t, had)
	require.Equal(t, "body", body)
	v, _ := fm.Get("rule")
	require.Equal(t, "----", v)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had := Split("---\r\nkey: value\r\n---\r\n# Title\r\n")
	require.True(t, had)
	require.Equal(t, "# Title\r\n", body)
	v, _ := fm.Get("key")
	require.Equal(t, "value", v)
}

func TestSplit_EmptyBlockAndMalformedLines(t *testing.T) {
	fm, body, had := Split("---\n---\n# Title\n")
	require.True(t, had)
	require.Zero(t, fm.Len())
	require.Equal(t, "# Title\n", body)

	fm, _, _ = Split("---\nno colon here\n: empty key\n# comment: ignored\nok: yes\n---\n")
	require.Equal(t, []Field{{"ok", "yes"}}, fm.Fields())
}

func TestSet_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	fm, _, _ := Split("---\na: 1\nb: 2\na: 3\n---\n")
	require.Equal(t, []Field{{"a", "3"}, {"b", "2"}}, fm.Fields())
}

func TestJoin_SplitRoundTrip(t *testing.T) {
	fm, body, _ := Split("---\ntitle: Hello\nlayout: post.layout\n---\n<h1>Hi</h1>\n")

	joined := Join(fm, body)
	require.Equal(t, "---\ntitle: Hello\nlayout: post.layout\n---\n<h1>Hi</h1>\n", joined)

	again, againBody, had := Split(joined)
	require.True(t, had)
	require.Equal(t, fm.Fields(), again.Fields())
	require.Equal(t, body, againBody)
}

func TestJoin_EmptyFrontmatterStillEmitsBlock(t *testing.T) {
	_, body, had := Split(Join(Frontmatter{}, "text"))
	require.True(t, had)
	require.Equal(t, "text", body)
}
