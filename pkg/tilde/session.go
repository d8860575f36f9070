package tilde

import (
	"fmt"
	"strings"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

// SessionOption configures a RenderSession.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	accessors    *AccessorRegistry
	stringifiers *StringifierRegistry
}

// WithAccessors sets the accessor registry used to populate the session.
func WithAccessors(r *AccessorRegistry) SessionOption {
	return func(c *sessionConfig) {
		if r != nil {
			c.accessors = r
		}
	}
}

// WithStringifiers sets the stringifier registry used when rendering.
func WithStringifiers(r *StringifierRegistry) SessionOption {
	return func(c *sessionConfig) {
		if r != nil {
			c.stringifiers = r
		}
	}
}

// binding is the value of a set variable.
type binding struct {
	value any
	lazy  *lazyValue
	group VarGroup
}

func (b *binding) resolve() any {
	if b.lazy != nil {
		return b.lazy.get()
	}
	return b.value
}

// lazyValue calls fn on first use and keeps the result.
type lazyValue struct {
	fn   func() any
	done bool
	v    any
}

func (l *lazyValue) get() any {
	if !l.done {
		l.v = l.fn()
		l.done = true
		l.fn = nil
	}
	return l.v
}

type mismatch struct {
	fixed, got int
}

// RenderSession holds the values and nested template instances for one
// rendering of a Template. A session belongs to a single goroutine.
type RenderSession struct {
	tmpl     *Template
	cfg      *sessionConfig
	values   map[string]*binding
	children map[string][]*RenderSession
	disabled map[string]bool
	mismatch map[string]mismatch
}

func newSession(t *Template, cfg *sessionConfig) *RenderSession {
	return &RenderSession{
		tmpl:     t,
		cfg:      cfg,
		values:   make(map[string]*binding),
		children: make(map[string][]*RenderSession),
		disabled: make(map[string]bool),
		mismatch: make(map[string]mismatch),
	}
}

// Template returns the template the session renders.
func (s *RenderSession) Template() *Template { return s.tmpl }

// Set binds value to the variable name.
func (s *RenderSession) Set(name string, value any) error {
	return s.SetGroup(name, NoGroup, value)
}

// SetGroup binds value to the variable name and renders it in group g,
// overriding the group declared in the template.
func (s *RenderSession) SetGroup(name string, g VarGroup, value any) error {
	if err := s.checkVariable(name); err != nil {
		return err
	}
	s.values[name] = &binding{value: value, group: g}
	return nil
}

// SetDelayed binds a value computed by fn on first render. The result is
// reused by later renders.
func (s *RenderSession) SetDelayed(name string, fn func() any) error {
	return s.SetDelayedGroup(name, NoGroup, fn)
}

// SetDelayedGroup is SetDelayed with a var-group.
func (s *RenderSession) SetDelayedGroup(name string, g VarGroup, fn func() any) error {
	if err := s.checkVariable(name); err != nil {
		return err
	}
	s.values[name] = &binding{lazy: &lazyValue{fn: fn}, group: g}
	return nil
}

// SetPath sets the variable at a dotted path through nested templates. For
// a repeated template fn is called with the index of each repetition. With
// force, a nested template that has no instances yet gets one; without it
// such a template is skipped.
func (s *RenderSession) SetPath(path string, g VarGroup, force bool, fn func(i int) any) error {
	return s.setPath(path, g, force, fn, 0, false)
}

// IfNotSet calls SetPath with force for every place path is not yet set.
func (s *RenderSession) IfNotSet(path string, g VarGroup, fn func(i int) any) error {
	return s.setPath(path, g, true, fn, 0, true)
}

func (s *RenderSession) setPath(path string, g VarGroup, force bool, fn func(int) any, i int, onlyUnset bool) error {
	if s.tmpl.HasVariable(path) {
		if _, set := s.values[path]; set && onlyUnset {
			return nil
		}
		return s.SetGroup(path, g, fn(i))
	}
	head, tail, found := strings.Cut(path, ".")
	if !found {
		return s.noSuchVariable(path)
	}
	if !s.tmpl.HasNestedTemplate(head) {
		return s.noSuchTemplate(head)
	}
	kids := s.children[head]
	if kids == nil {
		if !force {
			return nil
		}
		var err error
		if kids, err = s.createChildren(head, 1); err != nil {
			return err
		}
	}
	for j, k := range kids {
		if err := k.setPath(tail, g, force, fn, j, onlyUnset); err != nil {
			return err
		}
	}
	return nil
}

// Repeat instantiates the nested template name count times and returns
// the new sessions. It fails with REPETITIONS_FIXED if the template was
// instantiated before.
func (s *RenderSession) Repeat(name string, count int) (Sessions, error) {
	if err := s.checkTemplate(name); err != nil {
		return nil, err
	}
	if _, ok := s.children[name]; ok {
		return nil, tildeerr.NewRenderError(RepetitionsFixed, s.fqn(name),
			"Repetitions already fixed for template %q", s.fqn(name))
	}
	if count < 0 {
		return nil, s.negativeCount(name, count)
	}
	kids, err := s.createChildren(name, count)
	return Sessions(kids), err
}

// In returns the sessions of the nested template at the dotted path fqn,
// instantiating each template on the way once if it has no instances.
func (s *RenderSession) In(fqn string) (Sessions, error) {
	current := Sessions{s}
	for _, name := range strings.Split(fqn, ".") {
		var next Sessions
		for _, sess := range current {
			if err := sess.checkTemplate(name); err != nil {
				return nil, err
			}
			kids := sess.children[name]
			if kids == nil {
				var err error
				if kids, err = sess.createChildren(name, 1); err != nil {
					return nil, err
				}
			}
			next = append(next, kids...)
		}
		current = next
	}
	return current, nil
}

// Enable shows text-only nested templates once. Without names it enables
// every text-only nested template not yet instantiated.
func (s *RenderSession) Enable(names ...string) error {
	return s.EnableN(1, names...)
}

// EnableN shows text-only nested templates repeats times.
func (s *RenderSession) EnableN(repeats int, names ...string) error {
	if repeats < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, repeats)
	}
	if len(names) == 0 {
		for _, t := range s.tmpl.nested {
			if !t.IsTextOnly() {
				continue
			}
			if _, done := s.children[t.name]; !done {
				if _, err := s.createChildren(t.name, repeats); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, name := range names {
		t, err := s.nestedTemplate(name)
		if err != nil {
			return err
		}
		if !t.IsTextOnly() {
			return s.notTextOnly(name)
		}
		if _, err := s.createChildren(name, repeats); err != nil {
			return err
		}
	}
	return nil
}

// EnableRecursive shows nested templates whose whole subtree has no
// variables, together with every template nested in them. Without names
// it applies to all such templates not disabled.
func (s *RenderSession) EnableRecursive(names ...string) error {
	if len(names) == 0 {
		for _, t := range s.tmpl.nested {
			if t.subtreeVars == 0 && !s.disabled[t.name] {
				if err := s.enableTree(t.name); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, name := range names {
		t, err := s.nestedTemplate(name)
		if err != nil {
			return err
		}
		if t.subtreeVars != 0 {
			return s.notTextOnly(name)
		}
		if err := s.enableTree(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *RenderSession) enableTree(name string) error {
	kids, err := s.createChildren(name, 1)
	if err != nil {
		return err
	}
	for _, k := range kids {
		for _, t := range k.tmpl.nested {
			if err := k.enableTree(t.name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Disable suppresses nested templates from the output regardless of their
// instances.
func (s *RenderSession) Disable(names ...string) error {
	for _, name := range names {
		if err := s.checkTemplate(name); err != nil {
			return err
		}
		s.disabled[name] = true
	}
	return nil
}

// Unset returns variables to the unset state. Dotted paths reach into
// every instance of the nested templates they name.
func (s *RenderSession) Unset(paths ...string) error {
	for _, path := range paths {
		if err := s.unset(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *RenderSession) unset(path string) error {
	if s.tmpl.HasVariable(path) {
		delete(s.values, path)
		return nil
	}
	head, tail, found := strings.Cut(path, ".")
	if !found {
		return s.noSuchVariable(path)
	}
	if err := s.checkTemplate(head); err != nil {
		return err
	}
	for _, k := range s.children[head] {
		if err := k.unset(tail); err != nil {
			return err
		}
	}
	return nil
}

// Clear returns nested templates to the not-instantiated state and drops
// their disabled flags and recorded repetition mismatches. Without names
// it clears every nested template.
func (s *RenderSession) Clear(names ...string) error {
	if len(names) == 0 {
		names = s.tmpl.NestedTemplateNames()
	}
	for _, name := range names {
		if err := s.checkTemplate(name); err != nil {
			return err
		}
		delete(s.children, name)
		delete(s.disabled, name)
		delete(s.mismatch, name)
	}
	return nil
}

// ChildSessions returns the instances of the nested template name.
func (s *RenderSession) ChildSessions(name string) (Sessions, error) {
	if err := s.checkTemplate(name); err != nil {
		return nil, err
	}
	kids, ok := s.children[name]
	if !ok {
		return nil, tildeerr.NewRenderError(TemplateNotInstantiated, s.fqn(name),
			"Template not instantiated: %q", s.fqn(name))
	}
	return Sessions(kids), nil
}

// IsSet reports whether the variable name has a value.
func (s *RenderSession) IsSet(name string) bool {
	_, ok := s.values[name]
	return ok
}

// AllSet reports whether rendering would succeed as far as completeness
// goes: every variable without a placeholder is set and every nested
// template is disabled, instantiated or has no variables at all.
func (s *RenderSession) AllSet() bool {
	return s.check() == nil
}

// UnsetVariables returns the variables of this template that have no
// value and no placeholder to fall back on.
func (s *RenderSession) UnsetVariables() []string {
	var out []string
	for _, v := range s.tmpl.vars {
		if _, set := s.values[v]; !set && s.tmpl.required[v] {
			out = append(out, v)
		}
	}
	return out
}

// AllUnsetVariables is UnsetVariables for the whole session tree. Names
// are fully qualified, or relative to this session's template when
// relative is set.
func (s *RenderSession) AllUnsetVariables(relative bool) []string {
	prefix := FQN(s.tmpl)
	if relative {
		prefix = ""
	}
	seen := make(map[string]bool)
	var out []string
	s.collectUnset(prefix, seen, &out)
	return out
}

func (s *RenderSession) collectUnset(prefix string, seen map[string]bool, out *[]string) {
	for _, v := range s.UnsetVariables() {
		name := join(prefix, v)
		if !seen[name] {
			seen[name] = true
			*out = append(*out, name)
		}
	}
	for _, t := range s.tmpl.nested {
		for _, k := range s.children[t.name] {
			k.collectUnset(join(prefix, t.name), seen, out)
		}
	}
}

// createChildren makes sure the nested template name has count instances
// and returns them. Existing instances are kept when the count matches;
// otherwise the mismatch is recorded and REPETITION_MISMATCH returned.
func (s *RenderSession) createChildren(name string, count int) ([]*RenderSession, error) {
	if kids, ok := s.children[name]; ok {
		if len(kids) != count {
			s.mismatch[name] = mismatch{fixed: len(kids), got: count}
			return nil, s.repetitionMismatch(name, len(kids), count)
		}
		delete(s.mismatch, name)
		return kids, nil
	}
	t, _ := s.tmpl.NestedTemplate(name)
	kids := make([]*RenderSession, count)
	for i := range kids {
		kids[i] = newSession(t, s.cfg)
	}
	s.children[name] = kids
	return kids, nil
}

func (s *RenderSession) negativeCount(name string, n int) error {
	return fmt.Errorf("%w: %d for %q", ErrNegativeCount, n, s.fqn(name))
}

func (s *RenderSession) nestedTemplate(name string) (*Template, error) {
	t, ok := s.tmpl.NestedTemplate(name)
	if !ok {
		return nil, s.noSuchTemplate(name)
	}
	return t, nil
}

func (s *RenderSession) checkTemplate(name string) error {
	_, err := s.nestedTemplate(name)
	return err
}

func (s *RenderSession) checkVariable(name string) error {
	if !s.tmpl.HasVariable(name) {
		return s.noSuchVariable(name)
	}
	return nil
}

func (s *RenderSession) fqn(name string) string {
	return FQNOf(s.tmpl, name)
}

func (s *RenderSession) noSuchVariable(name string) error {
	return tildeerr.NewRenderError(NoSuchVariable, s.fqn(name), "No such variable: %q", s.fqn(name)).
		WithSuggestion(tildeerr.Closest(name, s.tmpl.vars))
}

func (s *RenderSession) noSuchTemplate(name string) error {
	return tildeerr.NewRenderError(NoSuchTemplate, s.fqn(name), "No such template: %q", s.fqn(name)).
		WithSuggestion(tildeerr.Closest(name, s.tmpl.NestedTemplateNames()))
}

func (s *RenderSession) notTextOnly(name string) error {
	return tildeerr.NewRenderError(NotTextOnly, s.fqn(name),
		"Template %q is not text-only", s.fqn(name))
}

func (s *RenderSession) repetitionMismatch(name string, fixed, got int) error {
	return tildeerr.NewRenderError(RepetitionMismatch, s.fqn(name),
		"Template %q repeats %d times but %d were supplied", s.fqn(name), fixed, got)
}
