package tilde

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string
	Age     int
	Tags    []tag `tilde:"tags"`
	Private string `tilde:"-"`
}

type tag struct {
	Label string
}

func (p person) Greeting() string { return "Hi " + p.Name }

func (p *person) Initial() (string, error) {
	if p.Name == "" {
		return "", errors.New("no name")
	}
	return p.Name[:1], nil
}

func TestRender_Insert(t *testing.T) {
	tmpl := mustParse(t, "~%name% (~%age%)~%%begin:tags%[~%label%]~%%end:tags%")

	t.Run("struct", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Insert(person{Name: "Ann", Age: 30, Tags: []tag{{"x"}, {"y"}}}, NoGroup))
		assert.Equal(t, "Ann (30)[x][y]", render(t, s))
	})

	t.Run("pointer to struct", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Insert(&person{Name: "Bob", Age: 4}, NoGroup))
		assert.Equal(t, "Bob (4)", render(t, s))
	})

	t.Run("map with missing template", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Insert(map[string]any{"name": "Cy", "age": 9}, NoGroup))
		assert.False(t, s.AllSet())
		_, err := s.RenderString()
		assert.ErrorIs(t, err, ErrTemplateNotInstantiated)

		require.NoError(t, s.Populate("tags", nil, NoGroup))
		assert.Equal(t, "Cy (9)", render(t, s))
	})

	t.Run("nil data", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		assert.ErrorIs(t, s.Insert(nil, NoGroup), ErrNotTextOnly)
		assert.NoError(t, mustParse(t, "static").NewRenderSession().Insert(nil, NoGroup))
	})

	t.Run("group applies to nested values", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Insert(person{Name: "<A>", Tags: []tag{{"&"}}}, VarGroupHTML))
		assert.Equal(t, "&lt;A&gt; (0)[&amp;]", render(t, s))
	})
}

func TestRender_InsertFilters(t *testing.T) {
	tmpl := mustParse(t, "~%user_name%/~%user_id%/~%other%")
	data := map[string]any{"user_name": "u", "user_id": 1, "other": "o"}

	s := tmpl.NewRenderSession()
	require.NoError(t, s.Insert(data, NoGroup, "user_*"))
	assert.Equal(t, []string{"other"}, s.UnsetVariables())

	s = tmpl.NewRenderSession()
	require.NoError(t, s.Insert(data, NoGroup, "other"))
	assert.Equal(t, []string{"user_name", "user_id"}, s.UnsetVariables())
}

func TestRender_Methods(t *testing.T) {
	tmpl := mustParse(t, "~%greeting%/~%initial%")

	s := tmpl.NewRenderSession()
	require.NoError(t, s.Insert(&person{Name: "Dee"}, NoGroup))
	assert.Equal(t, "Hi Dee/D", render(t, s))

	s = tmpl.NewRenderSession()
	err := s.Insert(&person{}, NoGroup)
	assert.ErrorIs(t, err, ErrAccessException)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "initial", re.Name)
}

func TestRender_PopulateShorthands(t *testing.T) {
	t.Run("one variable", func(t *testing.T) {
		tmpl := mustParse(t, "~%%begin:li%<li>~%v%</li>~%%end:li%~%%begin:kv%~%k%=~%v%~%%end:kv%")
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Populate1("li", NoGroup, "a", "b"))
		assert.ErrorIs(t, s.Populate1("kv", NoGroup, "x"), ErrNotOneVarTemplate)
		require.NoError(t, s.Disable("kv"))
		assert.Equal(t, "<li>a</li><li>b</li>", render(t, s))
	})

	t.Run("two variables", func(t *testing.T) {
		tmpl := mustParse(t, `~%%begin:opt%<option value="~%attr:k%">~%v%</option>~%%end:opt%`)
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Populate2("opt", NoGroup, "a b", "one", "2", "two"))
		assert.Equal(t, `<option value="a b">one</option><option value="2">two</option>`, render(t, s))
		assert.ErrorIs(t, s.Populate2("opt", NoGroup, "odd"), ErrNotTwoVarTemplate)

		single := mustParse(t, "~%%begin:li%~%v%~%%end:li%").NewRenderSession()
		assert.ErrorIs(t, single.Populate2("li", NoGroup, 1, 2), ErrNotTwoVarTemplate)
	})
}

func TestRender_Groups(t *testing.T) {
	const raw = `<b>"x"&'y'</b>`

	t.Run("html escaping", func(t *testing.T) {
		s := mustParse(t, "~%html:v%").NewRenderSession()
		require.NoError(t, s.Set("v", raw))
		out := render(t, s)
		assert.Equal(t, "&lt;b&gt;&#34;x&#34;&amp;&#39;y&#39;&lt;/b&gt;", out)
		assert.NotContains(t, out, "<")
		assert.NotContains(t, out, `"`)
		assert.NotContains(t, out, "'")
	})

	t.Run("text passes through", func(t *testing.T) {
		s := mustParse(t, "~%text:v%").NewRenderSession()
		require.NoError(t, s.Set("v", raw))
		assert.Equal(t, raw, render(t, s))
	})

	t.Run("set-time group overrides the template", func(t *testing.T) {
		s := mustParse(t, "~%html:v%").NewRenderSession()
		require.NoError(t, s.SetGroup("v", VarGroupText, "<i>"))
		assert.Equal(t, "<i>", render(t, s))

		s = mustParse(t, "~%v%").NewRenderSession()
		require.NoError(t, s.SetGroup("v", VarGroupHTML, "<i>"))
		assert.Equal(t, "&lt;i&gt;", render(t, s))
	})

	t.Run("def emits the placeholder for nil", func(t *testing.T) {
		tmpl := mustParse(t, "<!-- ~%def:v% -->none<!--%-->")
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Set("v", nil))
		assert.Equal(t, "none", render(t, s))
		require.NoError(t, s.Set("v", "some"))
		assert.Equal(t, "some", render(t, s))
	})

	t.Run("unknown group falls back to the default", func(t *testing.T) {
		s := mustParse(t, "~%custom:v%").NewRenderSession()
		require.NoError(t, s.Set("v", "<x>"))
		assert.Equal(t, "<x>", render(t, s))
	})

	t.Run("nil renders as empty", func(t *testing.T) {
		s := mustParse(t, "[~%v%]").NewRenderSession()
		var p *person
		require.NoError(t, s.Set("v", p))
		assert.Equal(t, "[]", render(t, s))
	})
}

func TestRender_StringifierFailures(t *testing.T) {
	tmpl := mustParse(t, "~%v%")
	strict := StringifierFunc(func(v any) (string, error) {
		return v.(string), nil
	})
	empty := StringifierFunc(func(v any) (string, error) {
		return "", ErrNoResult
	})
	failing := StringifierFunc(func(v any) (string, error) {
		return "", fmt.Errorf("boom")
	})

	tests := []struct {
		name  string
		s     Stringifier
		value any
		want  error
	}{
		{"panic on nil", strict, nil, ErrStringifierNotNullResistant},
		{"panic on value", strict, 42, ErrUnexpectedError},
		{"no result", empty, "x", ErrStringifierReturnedNull},
		{"error on nil", failing, nil, ErrStringifierNotNullResistant},
		{"error on value", failing, "x", ErrUnexpectedError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewStringifierRegistryBuilder().RegisterByName(tt.s, "v").Build()
			s := tmpl.NewRenderSession(WithStringifiers(reg))
			require.NoError(t, s.Set("v", tt.value))
			_, err := s.RenderString()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_Sinks(t *testing.T) {
	tmpl := mustParse(t, "abc~%x%def")

	t.Run("stream keeps partial output", func(t *testing.T) {
		var buf bytes.Buffer
		err := tmpl.NewRenderSession().Render(&buf)
		assert.ErrorIs(t, err, ErrNoSuchVariable)
		assert.Equal(t, "abc", buf.String())
	})

	t.Run("builder is transactional", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("pre:")
		err := tmpl.NewRenderSession().RenderTo(&sb)
		assert.Error(t, err)
		assert.Equal(t, "pre:", sb.String())

		s := tmpl.NewRenderSession()
		require.NoError(t, s.Set("x", "-"))
		require.NoError(t, s.RenderTo(&sb))
		assert.Equal(t, "pre:abc-def", sb.String())
	})

	t.Run("write errors", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Set("x", "-"))
		err := s.Render(failingWriter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("render twice", func(t *testing.T) {
		s := tmpl.NewRenderSession()
		require.NoError(t, s.Set("x", 1))
		assert.Equal(t, render(t, s), render(t, s))
	})
}
