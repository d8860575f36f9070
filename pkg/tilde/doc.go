// Package tilde is a text templating engine with context-aware escaping.
//
// A template is compiled once into an immutable Template and rendered any
// number of times through a RenderSession:
//
//	tmpl, err := tilde.FromString(`<h1>~%html:title%</h1>
//	~%%begin:row%
//	<li>~%name%</li>
//	~%%end:row%
//	`)
//	if err != nil {
//		return err
//	}
//	s := tmpl.NewRenderSession()
//	_ = s.Set("title", "Tom & Jerry")
//	_ = s.Populate("row", []map[string]any{{"name": "a"}, {"name": "b"}}, tilde.VarGroupHTML)
//	out, err := s.RenderString()
//
// Variables are written ~%name% or ~%group:name%, where the group selects
// how the value is escaped. Nested templates are delimited by
// ~%%begin:name% and ~%%end:name%, and ~%%include:path%% inlines another
// template. Every tag also has a form wrapped in an HTML comment, so that
// template files stay valid HTML.
//
// Values are read from data objects by an Accessor picked from an
// AccessorRegistry, and turned into text by a Stringifier picked from a
// StringifierRegistry.
//
// Parse failures are *ParseError values and render failures *RenderError
// values. Both carry a code and match the Err sentinels with errors.Is.
package tilde
