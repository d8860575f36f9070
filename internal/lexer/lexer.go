package lexer

import (
	"strings"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

const (
	ditchMark       = "<!--%%-->"
	placeholderMark = "<!--%-->"
	commentOpen     = "<!--"
	commentClose    = "-->"
	varOpen         = "~%"
	beginPrefix     = "~%%begin:"
	endPrefix       = "~%%end:"
	includePrefix   = "~%%include:"
)

// DefGroup is the var-group whose variables must declare a placeholder.
const DefGroup = "def"

// reserved var-group names; they would make a variable look like a tag.
var reservedGroups = map[string]bool{"begin": true, "end": true, "include": true}

type matchKind int

const (
	matchNone matchKind = iota
	matchSkip
	matchToken
)

type match struct {
	kind matchKind
	end  int
	tok  Token
}

// Lexer produces tokens from template source in a single forward pass.
type Lexer struct {
	src     string
	pos     int
	pending *Token
}

// New creates a lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token. At the end of input it returns a token of
// kind EOF. Errors are *errors.ParseError values positioned at the start of
// the offending construct.
func (l *Lexer) Next() (Token, error) {
	if l.pending != nil {
		tok := *l.pending
		l.pending = nil
		return tok, nil
	}

	var sb strings.Builder
	textStart := l.pos
	seg := l.pos
	i := l.pos
	for i < len(l.src) {
		c := l.src[i]
		if c != '~' && c != '<' {
			i++
			continue
		}
		m, err := l.match(i)
		if err != nil {
			return Token{}, err
		}
		switch m.kind {
		case matchNone:
			i++
		case matchSkip:
			sb.WriteString(l.src[seg:i])
			i = m.end
			seg = i
		default:
			tok := m.tok
			l.absorbLine(&tok)
			if tok.Start < seg {
				tok.Start = seg
			}
			sb.WriteString(l.src[seg:tok.Start])
			l.pos = tok.End
			if sb.Len() > 0 {
				l.pending = &tok
				return Token{Kind: Text, Start: textStart, End: tok.Start, Pos: textStart, Text: sb.String()}, nil
			}
			return tok, nil
		}
	}

	sb.WriteString(l.src[seg:])
	l.pos = len(l.src)
	if sb.Len() > 0 {
		return Token{Kind: Text, Start: textStart, End: len(l.src), Pos: textStart, Text: sb.String()}, nil
	}
	return Token{Kind: EOF, Start: len(l.src), End: len(l.src), Pos: len(l.src)}, nil
}

// All returns every token up to, but not including, EOF.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) match(i int) (match, error) {
	rest := l.src[i:]
	if rest[0] == '<' {
		switch {
		case strings.HasPrefix(rest, ditchMark):
			return l.skipBlock(i, ditchMark, tildeerr.DitchBlockNotClosed, "Ditch block not closed")
		case strings.HasPrefix(rest, placeholderMark):
			return l.skipBlock(i, placeholderMark, tildeerr.PlaceholderNotClosed, "Placeholder not closed")
		case strings.HasPrefix(rest, commentOpen):
			return l.matchComment(i)
		}
		return match{}, nil
	}

	switch {
	case strings.HasPrefix(rest, beginPrefix):
		name, end, err := l.tagName(i, len(beginPrefix), tildeerr.BeginTagNotTerminated, "begin")
		if err != nil {
			return match{}, err
		}
		return token(Token{Kind: BeginTag, Start: i, End: end, Name: name}), nil
	case strings.HasPrefix(rest, endPrefix):
		name, end, err := l.tagName(i, len(endPrefix), tildeerr.EndTagNotTerminated, "end")
		if err != nil {
			return match{}, err
		}
		tok := Token{Kind: EndTag, Start: i, End: end, Name: name}
		if k := l.commentCloseAt(end); k > 0 {
			tok.Comment = CommentBlock
			tok.Trailer = l.src[end:k]
			tok.End = k
		}
		return token(tok), nil
	case strings.HasPrefix(rest, includePrefix):
		name, path, end, err := l.include(i)
		if err != nil {
			return match{}, err
		}
		return token(Token{Kind: Include, Start: i, End: end, Name: name, Path: path}), nil
	case strings.HasPrefix(rest, varOpen):
		tok, ok, err := l.variable(i, i)
		if err != nil || !ok {
			return match{}, err
		}
		if tok.Group == DefGroup {
			return match{}, tildeerr.NewParseError(tildeerr.NoPlaceholderDefined, l.src, i,
				"Variable %q in group \"def\" must define a placeholder", tok.Name)
		}
		return token(tok), nil
	}
	return match{}, nil
}

func token(t Token) match {
	t.Pos = t.Start
	return match{kind: matchToken, end: t.End, tok: t}
}

func (l *Lexer) skipBlock(i int, mark string, code tildeerr.ParseErrorCode, msg string) (match, error) {
	body := i + len(mark)
	k := strings.Index(l.src[body:], mark)
	if k < 0 {
		return match{}, tildeerr.NewParseError(code, l.src, i, "%s", msg)
	}
	return match{kind: matchSkip, end: body + k + len(mark)}, nil
}

// matchComment recognizes the comment-wrapped forms of tags and variables.
// A comment that does not wrap a complete construct is plain text.
func (l *Lexer) matchComment(i int) (match, error) {
	j := i + len(commentOpen)
	if j < len(l.src) && l.src[j] == ' ' {
		j++
	}
	rest := l.src[j:]

	switch {
	case strings.HasPrefix(rest, beginPrefix):
		name, end, err := l.tagName(j, len(beginPrefix), tildeerr.BeginTagNotTerminated, "begin")
		if err != nil {
			return match{}, err
		}
		if k := l.commentCloseAt(end); k > 0 {
			return token(Token{Kind: BeginTag, Start: i, End: k, Name: name, Comment: CommentTag}), nil
		}
		return token(Token{Kind: BeginTag, Start: i, End: end, Name: name, Comment: CommentBlock}), nil

	case strings.HasPrefix(rest, endPrefix):
		name, end, err := l.tagName(j, len(endPrefix), tildeerr.EndTagNotTerminated, "end")
		if err != nil {
			return match{}, err
		}
		if k := l.commentCloseAt(end); k > 0 {
			return token(Token{Kind: EndTag, Start: i, End: k, Name: name, Comment: CommentTag}), nil
		}
		return match{}, nil

	case strings.HasPrefix(rest, includePrefix):
		name, path, end, err := l.include(j)
		if err != nil {
			return match{}, err
		}
		if k := l.commentCloseAt(end); k > 0 {
			return token(Token{Kind: Include, Start: i, End: k, Name: name, Path: path, Comment: CommentTag}), nil
		}
		return match{}, nil

	case strings.HasPrefix(rest, varOpen):
		tok, ok, err := l.variable(j, i)
		if err != nil || !ok {
			return match{}, err
		}
		k := l.commentCloseAt(tok.End)
		if k < 0 {
			return match{}, nil
		}
		tok.End = k
		tok.Comment = CommentTag
		lineEnd := strings.IndexByte(l.src[k:], '\n')
		if lineEnd < 0 {
			lineEnd = len(l.src) - k
		}
		if p := strings.Index(l.src[k:k+lineEnd], placeholderMark); p >= 0 {
			tok.Placeholder = l.src[k : k+p]
			tok.HasPlaceholder = true
			tok.End = k + p + len(placeholderMark)
		}
		if tok.Group == DefGroup && !tok.HasPlaceholder {
			return match{}, tildeerr.NewParseError(tildeerr.NoPlaceholderDefined, l.src, i,
				"Variable %q in group \"def\" must define a placeholder", tok.Name)
		}
		return token(tok), nil
	}
	return match{}, nil
}

// commentCloseAt returns the offset just past an optional space and "-->"
// starting at i, or -1.
func (l *Lexer) commentCloseAt(i int) int {
	if i < len(l.src) && l.src[i] == ' ' {
		i++
	}
	if strings.HasPrefix(l.src[i:], commentClose) {
		return i + len(commentClose)
	}
	return -1
}

// tagName reads the name of a begin or end tag whose prefix starts at at.
func (l *Lexer) tagName(at, prefixLen int, code tildeerr.ParseErrorCode, kind string) (string, int, error) {
	p := at + prefixLen
	q := p
	for q < len(l.src) && !stopsTag(l.src[q]) {
		q++
	}
	if q >= len(l.src) || l.src[q] != '%' {
		return "", 0, tildeerr.NewParseError(code, l.src, at, "%s tag not terminated", capitalize(kind))
	}
	name := l.src[p:q]
	if !IsName(name) {
		return "", 0, tildeerr.NewParseError(tildeerr.IllegalTmplName, l.src, at, "Illegal template name: %q", name)
	}
	return name, q + 1, nil
}

func stopsTag(c byte) bool {
	switch c {
	case '%', '\n', '\r', ' ', '\t', '~', '<':
		return true
	}
	return false
}

// include reads ~%%include:[name:]path%% starting at at.
func (l *Lexer) include(at int) (name, path string, end int, err error) {
	p := at + len(includePrefix)
	q := p
	for q < len(l.src) && !isSpace(l.src[q]) && !strings.HasPrefix(l.src[q:], "%%") {
		q++
	}
	if q >= len(l.src) || !strings.HasPrefix(l.src[q:], "%%") {
		return "", "", 0, tildeerr.NewParseError(tildeerr.IncludeTagNotTerminated, l.src, at, "Include tag not terminated")
	}
	spec := l.src[p:q]
	path = spec
	if c := strings.IndexByte(spec, ':'); c > 0 && c < len(spec)-1 && IsName(spec[:c]) {
		name, path = spec[:c], spec[c+1:]
	}
	if !isIncludePath(path) {
		return "", "", 0, tildeerr.NewParseError(tildeerr.InvalidIncludePath, l.src, at, "Invalid include path: %q", path)
	}
	return name, path, q + 2, nil
}

// variable reads ~%[group:]name% starting at at. ok is false when the
// characters do not form a variable, in which case they are plain text.
func (l *Lexer) variable(at, errAt int) (Token, bool, error) {
	p := at + len(varOpen)
	var group string
	if p < len(l.src) && isLetter(l.src[p]) {
		q := p
		for q < len(l.src) && isNameChar(l.src[q]) {
			q++
		}
		if q < len(l.src) && l.src[q] == ':' {
			group = l.src[p:q]
			p = q + 1
		}
	}
	q := p
	for q < len(l.src) && (isNameChar(l.src[q]) || l.src[q] == '.') {
		q++
	}
	if q >= len(l.src) || l.src[q] != '%' || !IsPath(l.src[p:q]) {
		return Token{}, false, nil
	}
	if reservedGroups[group] {
		return Token{}, false, tildeerr.NewParseError(tildeerr.IllegalVarPrefix, l.src, errAt,
			"Illegal variable prefix: %q", group)
	}
	return Token{Kind: Variable, Start: errAt, End: q + 1, Group: group, Name: l.src[p:q]}, true, nil
}

// absorbLine widens a begin or end tag over its whole line when nothing
// else but blanks shares the line.
func (l *Lexer) absorbLine(tok *Token) {
	if tok.Kind != BeginTag && tok.Kind != EndTag {
		return
	}
	k := tok.Start
	for k > 0 && isBlank(l.src[k-1]) {
		k--
	}
	if k > 0 && l.src[k-1] != '\n' {
		return
	}
	j := tok.End
	for j < len(l.src) && (isBlank(l.src[j]) || l.src[j] == '\r') {
		j++
	}
	if j < len(l.src) && l.src[j] != '\n' {
		return
	}
	if j < len(l.src) {
		j++
	}
	tok.Start, tok.End, tok.Standalone = k, j, true
}

// IsName reports whether s matches the identifier grammar [a-zA-Z0-9_-]+.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

// IsPath reports whether s is a dot-separated sequence of names.
func IsPath(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if !IsName(seg) {
			return false
		}
	}
	return true
}

// IsGroupName reports whether s is a legal var-group name.
func IsGroupName(s string) bool {
	return s != "" && isLetter(s[0]) && IsName(s)
}

func isIncludePath(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isNameChar(c) || strings.IndexByte("~:;/?#!$&%,@+.=[]()", c) >= 0 {
			continue
		}
		return false
	}
	return true
}

func isNameChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
