package tilde

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapers(t *testing.T) {
	tests := []struct {
		name   string
		escape func(string) string
		in     string
		want   string
	}{
		{"html", EscapeHTML, `<a href="x">'&'</a>`, "&lt;a href=&#34;x&#34;&gt;&#39;&amp;&#39;&lt;/a&gt;"},
		{"attr", EscapeAttr, "a=`b`", "a&#61;&#96;b&#96;"},
		{"js", EscapeJS, `it's "x"`, `it\'s \"x\"`},
		{"jsattr", EscapeJSAttr, `a='b'`, `a\u003D\&#39;b\&#39;`},
		{"path", EscapePath, "a b/c", "a%20b%2Fc"},
		{"param", EscapeParam, "a b&c=d", "a+b%26c%3Dd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.escape(tt.in))
		})
	}
}

func TestGroupEscapers(t *testing.T) {
	for _, g := range PredefinedGroups {
		s, ok := groupEscapers[g]
		if g == VarGroupDef {
			assert.False(t, ok, "def must not have a stringifier")
			continue
		}
		if !assert.True(t, ok, "missing escaper for %s", g) {
			continue
		}
		out, err := s.Stringify(nil)
		assert.NoError(t, err)
		assert.Equal(t, "", out, "nil must render empty in group %s", g)
	}
}

func TestSanitizeHTML(t *testing.T) {
	out, err := SanitizeHTML.Stringify(`<p onclick="evil()">hi <b>there</b></p><script>alert(1)</script>`)
	assert.NoError(t, err)
	assert.Contains(t, out, "<b>there</b>")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "<script")

	out, err = SanitizeHTML.Stringify(nil)
	assert.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestVarGroup(t *testing.T) {
	assert.True(t, VarGroupHTML.IsPredefined())
	assert.False(t, VarGroup("safe").IsPredefined())
	assert.True(t, VarGroup("safe").Valid())
	assert.False(t, VarGroup("1x").Valid())
	assert.Equal(t, "html", VarGroupHTML.String())
}
