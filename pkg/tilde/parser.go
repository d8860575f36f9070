package tilde

import (
	"path"
	"strings"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
	"github.com/conneroisu/tilde/internal/lexer"
)

// parser builds a template tree from the token stream in one pass,
// descending recursively into inline templates.
type parser struct {
	lex      *lexer.Lexer
	src      string
	origin   Origin
	resolver PathResolver
	cache    *Cache
	// stack holds the origins currently being parsed, for cycle detection.
	stack []Origin
	// open holds the names of the inline templates not yet closed.
	open []string
}

func parse(src string, origin Origin, resolver PathResolver, cache *Cache, stack []Origin) (*Template, error) {
	p := &parser{
		lex:      lexer.New(src),
		src:      src,
		origin:   origin,
		resolver: resolver,
		cache:    cache,
		stack:    stack,
	}
	root := newTemplate(RootName, nil)
	root.origin = origin
	if _, err := p.parseBody(root, nil); err != nil {
		if pe, ok := err.(*tildeerr.ParseError); ok {
			return nil, pe.WithPath(origin.Path)
		}
		return nil, err
	}
	return root, nil
}

// parseBody consumes tokens into t until the end tag matching begin, or the
// end of input when begin is nil. It returns the end tag.
func (p *parser) parseBody(t *Template, begin *lexer.Token) (*lexer.Token, error) {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case lexer.EOF:
			if begin != nil {
				return nil, p.errorf(tildeerr.MissingEndTag, begin.Pos, "Missing end tag for template %q", begin.Name)
			}
			t.seal()
			return nil, nil

		case lexer.Text:
			t.addText(tok.Text, tok.Start)

		case lexer.Variable:
			if t.HasNestedTemplate(tok.Name) {
				return nil, p.errorf(tildeerr.VarNameWithTmplName, tok.Pos,
					"Variable %q has the same name as a nested template", tok.Name)
			}
			t.addVariable(&VariablePart{
				name:           tok.Name,
				group:          VarGroup(tok.Group),
				placeholder:    tok.Placeholder,
				hasPlaceholder: tok.HasPlaceholder,
				comment:        tok.Comment != lexer.CommentNone,
				start:          tok.Pos,
			})

		case lexer.BeginTag:
			if err := p.checkNestedName(t, tok.Name, tok.Pos); err != nil {
				return nil, err
			}
			child := newTemplate(tok.Name, t)
			child.origin = p.origin
			p.open = append(p.open, tok.Name)
			end, err := p.parseBody(child, &tok)
			if err != nil {
				return nil, err
			}
			p.open = p.open[:len(p.open)-1]
			t.addNested(&NestedTemplatePart{tmpl: child, start: tok.Pos})
			if end.Comment == lexer.CommentBlock && tok.Comment != lexer.CommentBlock {
				t.addText(end.Trailer, end.End-len(end.Trailer))
			}

		case lexer.EndTag:
			if begin == nil {
				return nil, p.errorf(tildeerr.DanglingEndTag, tok.Pos, "Dangling end tag for template %q", tok.Name)
			}
			if tok.Name != begin.Name {
				if p.isOpen(tok.Name) {
					return nil, p.errorf(tildeerr.MissingEndTag, begin.Pos, "Missing end tag for template %q", begin.Name)
				}
				return nil, p.errorf(tildeerr.DanglingEndTag, tok.Pos, "Dangling end tag for template %q", tok.Name)
			}
			t.seal()
			return &tok, nil

		case lexer.Include:
			if err := p.include(t, tok); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) include(t *Template, tok lexer.Token) error {
	name := tok.Name
	if name == "" {
		name = includeName(tok.Path)
		if !lexer.IsName(name) {
			return p.errorf(tildeerr.IllegalTmplName, tok.Pos,
				"Cannot derive a template name from include path %q", tok.Path)
		}
	}
	if err := p.checkNestedName(t, name, tok.Pos); err != nil {
		return err
	}

	resolver := p.resolver
	if resolver == nil {
		resolver = FileResolver{}
	}
	if !resolver.IsValidPath(tok.Path) {
		return p.errorf(tildeerr.InvalidIncludePath, tok.Pos, "Invalid include path: %q", tok.Path)
	}
	origin := Origin{Resolver: resolverKey(resolver), Path: tok.Path}
	for _, o := range p.stack {
		if o == origin {
			return p.errorf(tildeerr.IncludeCycle, tok.Pos, "Circular include of %q", tok.Path)
		}
	}
	if origin == p.origin {
		return p.errorf(tildeerr.IncludeCycle, tok.Pos, "Template includes itself: %q", tok.Path)
	}

	stack := append(append([]Origin(nil), p.stack...), p.origin)
	included, err := p.cache.load(resolver, tok.Path, stack)
	if err != nil {
		if tildeerr.IsParseError(err) {
			return err
		}
		return p.errorf(tildeerr.InvalidIncludePath, tok.Pos, "Cannot resolve include path %q", tok.Path).WithCause(err)
	}

	child := included.cloneAs(name, t)
	child.deps = append(child.deps, origin)
	t.addNested(&NestedTemplatePart{tmpl: child, included: true, path: tok.Path, start: tok.Pos})
	return nil
}

func (p *parser) checkNestedName(t *Template, name string, pos int) error {
	if t.HasNestedTemplate(name) {
		return p.errorf(tildeerr.DuplicateTmplName, pos, "Duplicate template name: %q", name)
	}
	if t.HasVariable(name) {
		return p.errorf(tildeerr.VarNameWithTmplName, pos,
			"Template %q has the same name as a variable", name)
	}
	return nil
}

func (p *parser) isOpen(name string) bool {
	for _, n := range p.open {
		if n == name {
			return true
		}
	}
	return false
}

func (p *parser) errorf(code tildeerr.ParseErrorCode, pos int, format string, args ...interface{}) *tildeerr.ParseError {
	return tildeerr.NewParseError(code, p.src, pos, format, args...)
}

// includeName derives a template name from an include path: the base name
// up to its first dot.
func includeName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}
