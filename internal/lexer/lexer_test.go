package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	tokens, err := New(src).All()
	require.NoError(t, err)
	return tokens
}

func TestLexerVariables(t *testing.T) {
	tokens := lexAll(t, "Hello ~%name%, you owe ~%html:amount.total%!")
	require.Equal(t, []Kind{Text, Variable, Text, Variable, Text}, kinds(tokens))

	assert.Equal(t, "Hello ", tokens[0].Text)
	assert.Equal(t, "name", tokens[1].Name)
	assert.Empty(t, tokens[1].Group)
	assert.Equal(t, "html", tokens[3].Group)
	assert.Equal(t, "amount.total", tokens[3].Name)
	assert.Equal(t, "!", tokens[4].Text)
}

func TestLexerPlainTextLookalikes(t *testing.T) {
	testCases := []string{
		"50~% off",
		"~%not a var%",
		"~%%",
		"~%a..b%",
		"<!-- a regular comment -->",
		"x < y",
	}

	for _, src := range testCases {
		t.Run(src, func(t *testing.T) {
			tokens := lexAll(t, src)
			require.Len(t, tokens, 1)
			assert.Equal(t, Text, tokens[0].Kind)
			assert.Equal(t, src, tokens[0].Text)
		})
	}
}

func TestLexerCommentedVariable(t *testing.T) {
	tokens := lexAll(t, "<td><!-- ~%text:name% -->John Smith<!--%--></td>")
	require.Equal(t, []Kind{Text, Variable, Text}, kinds(tokens))

	v := tokens[1]
	assert.Equal(t, "name", v.Name)
	assert.Equal(t, "text", v.Group)
	assert.True(t, v.HasPlaceholder)
	assert.Equal(t, "John Smith", v.Placeholder)
	assert.Equal(t, CommentTag, v.Comment)
	assert.Equal(t, "</td>", tokens[2].Text)

	tokens = lexAll(t, "<!--~%name%-->\n<!--%-->x<!--%-->")
	require.Equal(t, []Kind{Variable, Text}, kinds(tokens))
	assert.False(t, tokens[0].HasPlaceholder, "placeholder must close on the same line")
}

func TestLexerDefGroupRequiresPlaceholder(t *testing.T) {
	_, err := New("<!-- ~%def:name% -->").All()
	require.Error(t, err)
	assert.True(t, errors.Is(err, &tildeerr.ParseError{Code: tildeerr.NoPlaceholderDefined}))

	_, err = New("~%def:name%").All()
	assert.True(t, errors.Is(err, &tildeerr.ParseError{Code: tildeerr.NoPlaceholderDefined}))

	tokens := lexAll(t, "<!-- ~%def:name% -->anonymous<!--%-->")
	require.Len(t, tokens, 1)
	assert.Equal(t, "anonymous", tokens[0].Placeholder)
}

func TestLexerTags(t *testing.T) {
	tokens := lexAll(t, "<ul>~%%begin:row%<li>~%item%</li>~%%end:row%</ul>")
	require.Equal(t, []Kind{Text, BeginTag, Text, Variable, Text, EndTag, Text}, kinds(tokens))
	assert.Equal(t, "row", tokens[1].Name)
	assert.Equal(t, "row", tokens[5].Name)
	assert.Equal(t, CommentNone, tokens[1].Comment)

	tokens = lexAll(t, "<!-- ~%%begin:row% -->x<!-- ~%%end:row% -->")
	require.Equal(t, []Kind{BeginTag, Text, EndTag}, kinds(tokens))
	assert.Equal(t, CommentTag, tokens[0].Comment)
	assert.Equal(t, CommentTag, tokens[2].Comment)

	tokens = lexAll(t, "<!-- ~%%begin:row%x~%%end:row% -->")
	require.Equal(t, []Kind{BeginTag, Text, EndTag}, kinds(tokens))
	assert.Equal(t, CommentBlock, tokens[0].Comment)
	assert.Equal(t, CommentBlock, tokens[2].Comment)
	assert.Equal(t, " -->", tokens[2].Trailer)
}

func TestLexerStandaloneTags(t *testing.T) {
	src := "<ul>\n  ~%%begin:row%\n  <li/>\n  ~%%end:row%\n</ul>"
	tokens := lexAll(t, src)
	require.Equal(t, []Kind{Text, BeginTag, Text, EndTag, Text}, kinds(tokens))

	assert.Equal(t, "<ul>\n", tokens[0].Text)
	assert.True(t, tokens[1].Standalone)
	assert.Equal(t, "  <li/>\n", tokens[2].Text)
	assert.True(t, tokens[3].Standalone)
	assert.Equal(t, "</ul>", tokens[4].Text)
}

func TestLexerInclude(t *testing.T) {
	testCases := []struct {
		src  string
		name string
		path string
	}{
		{"~%%include:/views/footer.html%%", "", "/views/footer.html"},
		{"~%%include:foot:/views/footer.html%%", "foot", "/views/footer.html"},
		{"<!-- ~%%include:partials/nav.html%% -->", "", "partials/nav.html"},
		{"~%%include:q?a=1&b=%20%%", "", "q?a=1&b=%20"},
	}

	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			tokens := lexAll(t, tc.src)
			require.Len(t, tokens, 1)
			assert.Equal(t, Include, tokens[0].Kind)
			assert.Equal(t, tc.name, tokens[0].Name)
			assert.Equal(t, tc.path, tokens[0].Path)
		})
	}
}

func TestLexerSkipsDitchAndPlaceholderBlocks(t *testing.T) {
	tokens := lexAll(t, "a<!--%%-->~%%begin:x% ignored<!--%%-->b<!--%-->\nsample\n<!--%-->c")
	require.Len(t, tokens, 1)
	assert.Equal(t, "abc", tokens[0].Text)
}

func TestLexerErrors(t *testing.T) {
	testCases := []struct {
		name   string
		src    string
		code   tildeerr.ParseErrorCode
		line   int
		column int
	}{
		{"begin not terminated", "x\n  ~%%begin:row", tildeerr.BeginTagNotTerminated, 2, 3},
		{"begin name with space", "~%%begin:a b%", tildeerr.BeginTagNotTerminated, 1, 1},
		{"illegal template name", "~%%begin:a$b%", tildeerr.IllegalTmplName, 1, 1},
		{"empty template name", "~%%begin:%", tildeerr.IllegalTmplName, 1, 1},
		{"end not terminated", "~%%end:row\n", tildeerr.EndTagNotTerminated, 1, 1},
		{"include not terminated", "~%%include:foo.html%", tildeerr.IncludeTagNotTerminated, 1, 1},
		{"include bad path", "~%%include:foo*bar%%", tildeerr.InvalidIncludePath, 1, 1},
		{"ditch not closed", "ab<!--%%-->", tildeerr.DitchBlockNotClosed, 1, 3},
		{"placeholder not closed", "\n\n<!--%-->", tildeerr.PlaceholderNotClosed, 3, 1},
		{"illegal var prefix", "~%begin:x%", tildeerr.IllegalVarPrefix, 1, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.src).All()
			require.Error(t, err)

			var pe *tildeerr.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.code, pe.Code)
			assert.Equal(t, tc.line, pe.Line)
			assert.Equal(t, tc.column, pe.Column)
		})
	}
}

func TestIsName(t *testing.T) {
	assert.True(t, IsName("row_1-a"))
	assert.False(t, IsName(""))
	assert.False(t, IsName("a.b"))
	assert.True(t, IsPath("a.b.c"))
	assert.False(t, IsPath("a..b"))
	assert.False(t, IsPath(".a"))
	assert.True(t, IsGroupName("jsattr"))
	assert.False(t, IsGroupName("1x"))
}
