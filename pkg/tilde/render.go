package tilde

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

// Render writes the output to w. Rendering stops at the first error; what
// was written to w before it stays written.
func (s *RenderSession) Render(w io.Writer) error {
	return s.render(w)
}

// RenderTo appends the output to sb. On error sb is left unchanged.
func (s *RenderSession) RenderTo(sb *strings.Builder) error {
	out, err := s.RenderString()
	if err != nil {
		return err
	}
	sb.WriteString(out)
	return nil
}

// RenderString returns the output as a string.
func (s *RenderSession) RenderString() (string, error) {
	var sb strings.Builder
	if err := s.render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (s *RenderSession) render(w io.Writer) error {
	for _, p := range s.tmpl.parts {
		switch p := p.(type) {
		case *TextPart:
			if err := write(w, p.text); err != nil {
				return err
			}
		case *VariablePart:
			if err := s.renderVariable(w, p); err != nil {
				return err
			}
		case *NestedTemplatePart:
			if err := s.renderNested(w, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func write(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (s *RenderSession) renderVariable(w io.Writer, p *VariablePart) error {
	b, set := s.values[p.name]
	if !set {
		if p.hasPlaceholder {
			return write(w, p.placeholder)
		}
		return s.variableNotSet(p.name)
	}
	v, err := s.resolve(p.name, b)
	if err != nil {
		return err
	}
	g := b.group
	if g == NoGroup {
		g = p.group
	}
	if g == VarGroupDef && isNil(v) {
		return write(w, p.placeholder)
	}
	text, err := s.stringify(p.name, g, v)
	if err != nil {
		return err
	}
	return write(w, text)
}

// resolve returns the bound value, evaluating a deferred one. A panic in
// the supplier becomes an UNEXPECTED_ERROR and leaves it unevaluated.
func (s *RenderSession) resolve(name string, b *binding) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			fqn := s.fqn(name)
			err = tildeerr.WrapRender(UnexpectedError, fqn, fmt.Errorf("panic: %v", r),
				"Error evaluating deferred value of %q", fqn)
		}
	}()
	return b.resolve(), nil
}

// stringify applies the registered stringifier and turns its failures,
// panics included, into render errors.
func (s *RenderSession) stringify(name string, g VarGroup, v any) (text string, err error) {
	st := s.cfg.stringifiers.Lookup(s.tmpl, name, g, v)
	fqn := s.fqn(name)
	defer func() {
		if r := recover(); r != nil {
			err = s.stringifierFailed(fqn, v, fmt.Errorf("panic: %v", r))
		}
	}()
	text, err = st.Stringify(v)
	if err != nil {
		return "", s.stringifierFailed(fqn, v, err)
	}
	return text, nil
}

func (s *RenderSession) stringifierFailed(fqn string, v any, cause error) error {
	switch {
	case isNil(v):
		return tildeerr.WrapRender(StringifierNotNullResistant, fqn, cause,
			"Stringifier for %q cannot handle nil", fqn)
	case errors.Is(cause, ErrNoResult):
		return tildeerr.NewRenderError(StringifierReturnedNull, fqn,
			"Stringifier for %q returned no result for a %T", fqn, v)
	}
	return tildeerr.WrapRender(UnexpectedError, fqn, cause,
		"Error stringifying %q", fqn)
}

func (s *RenderSession) renderNested(w io.Writer, p *NestedTemplatePart) error {
	kids, err := s.instances(p.tmpl)
	if err != nil {
		return err
	}
	for _, k := range kids {
		if err := k.render(w); err != nil {
			return err
		}
	}
	return nil
}

// instances returns the sessions a nested template renders with, or an
// error when it cannot be rendered in its current state.
func (s *RenderSession) instances(t *Template) ([]*RenderSession, error) {
	if s.disabled[t.name] {
		return nil, nil
	}
	if m, ok := s.mismatch[t.name]; ok {
		return nil, s.repetitionMismatch(t.name, m.fixed, m.got)
	}
	kids, ok := s.children[t.name]
	if !ok {
		if t.subtreeVars == 0 {
			return nil, nil
		}
		return nil, tildeerr.NewRenderError(TemplateNotInstantiated, s.fqn(t.name),
			"Template not instantiated: %q", s.fqn(t.name))
	}
	return kids, nil
}

// check walks the session like render does, without producing output or
// evaluating values, and returns the error render would report first.
func (s *RenderSession) check() error {
	for _, p := range s.tmpl.parts {
		switch p := p.(type) {
		case *VariablePart:
			if _, set := s.values[p.name]; !set && !p.hasPlaceholder {
				return s.variableNotSet(p.name)
			}
		case *NestedTemplatePart:
			kids, err := s.instances(p.tmpl)
			if err != nil {
				return err
			}
			for _, k := range kids {
				if err := k.check(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Check returns the completeness error rendering would fail with, if any.
func (s *RenderSession) Check() error {
	return s.check()
}

func (s *RenderSession) variableNotSet(name string) error {
	return tildeerr.NewRenderError(NoSuchVariable, s.fqn(name), "Variable not set: %q", s.fqn(name))
}
