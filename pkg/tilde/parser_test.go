package tilde

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := NewCache(CacheDisabled).FromString(src)
	require.NoError(t, err)
	return tmpl
}

func TestParse_Structure(t *testing.T) {
	t.Run("variables and nested templates", func(t *testing.T) {
		tmpl := mustParse(t, "Hello ~%name%, ~%%begin:row%<li>~%item%</li>~%%end:row% bye ~%name%")

		assert.Equal(t, RootName, tmpl.Name())
		assert.True(t, tmpl.IsRoot())
		assert.Equal(t, []string{"name"}, tmpl.Variables())
		assert.Equal(t, []string{"row"}, tmpl.NestedTemplateNames())

		row, ok := tmpl.NestedTemplate("row")
		require.True(t, ok)
		assert.Equal(t, []string{"item"}, row.Variables())
		assert.Same(t, tmpl, row.Parent())
		assert.False(t, tmpl.IsTextOnly())
	})

	t.Run("lookalikes are text", func(t *testing.T) {
		tmpl := mustParse(t, "100~% off, ~%not valid%, <b>bold</b> <!-- plain comment -->")
		assert.True(t, tmpl.IsTextOnly())
		require.Len(t, tmpl.Parts(), 1)
		assert.Equal(t, "100~% off, ~%not valid%, <b>bold</b> <!-- plain comment -->",
			tmpl.Parts()[0].(*TextPart).Text())
	})

	t.Run("var groups", func(t *testing.T) {
		tmpl := mustParse(t, "~%html:title% ~%js:code% ~%custom:x%")
		var groups []VarGroup
		for _, p := range tmpl.Parts() {
			if v, ok := p.(*VariablePart); ok {
				groups = append(groups, v.Group())
			}
		}
		assert.Equal(t, []VarGroup{VarGroupHTML, VarGroupJS, VarGroup("custom")}, groups)
	})

	t.Run("commented variable with placeholder", func(t *testing.T) {
		tmpl := mustParse(t, "<p><!-- ~%name% -->Anonymous<!--%--></p>")
		var v *VariablePart
		for _, p := range tmpl.Parts() {
			if vp, ok := p.(*VariablePart); ok {
				v = vp
			}
		}
		require.NotNil(t, v)
		ph, ok := v.Placeholder()
		assert.True(t, ok)
		assert.Equal(t, "Anonymous", ph)
	})

	t.Run("ditch and placeholder blocks are dropped", func(t *testing.T) {
		tmpl := mustParse(t, "a<!--%%-->~%hidden%<!--%%-->b<!--%-->\nmock\n<!--%-->c")
		assert.True(t, tmpl.IsTextOnly())
		assert.Equal(t, "abc", tmpl.String())
	})

	t.Run("standalone tags absorb their line", func(t *testing.T) {
		tmpl := mustParse(t, "<ul>\n  ~%%begin:li%\n  <li>~%x%</li>\n  ~%%end:li%\n</ul>\n")
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Populate1("li", NoGroup, 1, 2))
		out, err := s.RenderString()
		require.NoError(t, err)
		assert.Equal(t, "<ul>\n  <li>1</li>\n  <li>2</li>\n</ul>\n", out)
	})

	t.Run("commented tags", func(t *testing.T) {
		tmpl := mustParse(t, "<!-- ~%%begin:a% -->A<!-- ~%%end:a% --><!--~%%begin:b%-->B<!--~%%end:b%-->")
		assert.Equal(t, []string{"a", "b"}, tmpl.NestedTemplateNames())
	})

	t.Run("template inside one comment", func(t *testing.T) {
		tmpl := mustParse(t, "x<!-- ~%%begin:hid%<b>~%v%</b>~%%end:hid% -->y")
		hid, ok := tmpl.NestedTemplate("hid")
		require.True(t, ok)
		assert.Equal(t, []string{"v"}, hid.Variables())

		s := tmpl.NewRenderSession()
		require.NoError(t, s.Populate1("hid", NoGroup, "!"))
		out, err := s.RenderString()
		require.NoError(t, err)
		assert.Equal(t, "x<b>!</b>y", out)
	})

	t.Run("bare begin with comment end keeps the comment close", func(t *testing.T) {
		tmpl := mustParse(t, "~%%begin:a%A~%%end:a% -->")
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Enable("a"))
		out, err := s.RenderString()
		require.NoError(t, err)
		assert.Equal(t, "A -->", out)
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"duplicate template", "~%%begin:item%x~%%end:item%~%%begin:item%y~%%end:item%", ErrDuplicateTmplName},
		{"dangling end", "abc~%%end:x%", ErrDanglingEndTag},
		{"missing end", "~%%begin:x%abc", ErrMissingEndTag},
		{"crossed tags", "~%%begin:a%~%%begin:b%~%%end:a%~%%end:b%", ErrMissingEndTag},
		{"begin not terminated", "~%%begin:x abc", ErrBeginTagNotTerminated},
		{"end not terminated", "~%%begin:x%~%%end:x", ErrEndTagNotTerminated},
		{"include not terminated", "~%%include:foo.html", ErrIncludeTagNotTerminated},
		{"illegal template name", "~%%begin:%x~%%end:%", ErrIllegalTmplName},
		{"variable after template", "~%%begin:x%a~%%end:x%~%x%", ErrVarNameWithTmplName},
		{"template after variable", "~%x%~%%begin:x%a~%%end:x%", ErrVarNameWithTmplName},
		{"placeholder not closed", "a<!--%-->b", ErrPlaceholderNotClosed},
		{"ditch block not closed", "a<!--%%-->b", ErrDitchBlockNotClosed},
		{"def without placeholder", "~%def:x%", ErrNoPlaceholderDefined},
		{"reserved prefix", "~%begin:x%", ErrIllegalVarPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewCache(CacheDisabled).FromString(tt.src)
			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := NewCache(CacheDisabled).FromString("line one\n  ~%%end:x%\n")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, DanglingEndTag, pe.Code)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, 3, pe.Column)
	assert.Contains(t, pe.Error(), "Error at line 2, column 3.")
}

func TestParse_Includes(t *testing.T) {
	fsys := fstest.MapFS{
		"main.html":  {Data: []byte("<table>~%%include:row.html%%~%%include:other:row.html%%</table>")},
		"row.html":   {Data: []byte("<td>~%v%</td>")},
		"a.html":     {Data: []byte("a~%%include:b.html%%")},
		"b.html":     {Data: []byte("b~%%include:a.html%%")},
		"self.html":  {Data: []byte("~%%include:self.html%%")},
		"clash.html": {Data: []byte("~%row%~%%include:row.html%%")},
	}

	t.Run("included templates are nested", func(t *testing.T) {
		tmpl, err := NewCache(10).FromFS(fsys, "main.html")
		require.NoError(t, err)
		assert.Equal(t, []string{"row", "other"}, tmpl.NestedTemplateNames())

		row, _ := tmpl.NestedTemplate("row")
		other, _ := tmpl.NestedTemplate("other")
		assert.Same(t, tmpl, row.Parent())
		assert.Same(t, tmpl, other.Parent())
		assert.NotSame(t, row, other)
		assert.Equal(t, []string{"v"}, other.Variables())
		assert.Len(t, tmpl.Dependencies(), 2)
	})

	t.Run("include cycle", func(t *testing.T) {
		_, err := NewCache(10).FromFS(fsys, "a.html")
		assert.ErrorIs(t, err, ErrIncludeCycle)
		_, err = NewCache(10).FromFS(fsys, "self.html")
		assert.ErrorIs(t, err, ErrIncludeCycle)
	})

	t.Run("invalid include path", func(t *testing.T) {
		_, err := NewCache(10).FromString("~%%include:missing.html%%", WithResolver(FSResolver{FS: fsys}))
		assert.ErrorIs(t, err, ErrInvalidIncludePath)
	})

	t.Run("include name clashes with variable", func(t *testing.T) {
		_, err := NewCache(10).FromFS(fsys, "clash.html")
		assert.ErrorIs(t, err, ErrVarNameWithTmplName)
	})
}

func TestIncludeName(t *testing.T) {
	assert.Equal(t, "row", includeName("views/row.html"))
	assert.Equal(t, "list", includeName("list.tmpl.html"))
	assert.Equal(t, "x", includeName("x"))
}
