// Package lexer splits template source into tokens: literal text, variable
// placeholders, inline template begin and end tags, and include tags.
//
// Ditch blocks and placeholder blocks never reach the token stream. The
// lexer drops them and reports unterminated constructs as parse errors.
package lexer

import "fmt"

// Kind is the type of a token.
type Kind int

const (
	EOF Kind = iota
	Text
	Variable
	BeginTag
	EndTag
	Include
)

// String returns the token kind name.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Text:
		return "Text"
	case Variable:
		return "Variable"
	case BeginTag:
		return "BeginTag"
	case EndTag:
		return "EndTag"
	case Include:
		return "Include"
	default:
		return "Unknown"
	}
}

// Comment describes how a tag is wrapped in an HTML comment.
type Comment int

const (
	// CommentNone is a bare tag.
	CommentNone Comment = iota
	// CommentTag is a tag that is a complete comment by itself,
	// e.g. <!-- ~%%begin:row% -->.
	CommentTag
	// CommentBlock opens (begin tag) or closes (end tag) a comment that
	// spans the whole nested template.
	CommentBlock
)

// Token is a single lexical element.
type Token struct {
	Kind Kind
	// Start and End delimit the bytes of the source the token covers.
	Start int
	End   int
	// Pos is where the construct itself begins. It differs from Start when
	// a standalone tag absorbed the blanks before it.
	Pos int

	// Text holds the literal for Text tokens.
	Text string

	// Group is the var-group prefix of a variable, if any.
	Group string
	// Name is the variable name, the nested template name, or the explicit
	// include name.
	Name string
	// Path is the include path.
	Path string

	Placeholder    string
	HasPlaceholder bool

	Comment Comment
	// Trailer is the comment terminator consumed after an end tag with
	// CommentBlock, kept so the parser can restore it when the matching
	// begin tag did not open a comment.
	Trailer string
	// Standalone is set when a begin or end tag occupied its line alone and
	// the line was absorbed into the token.
	Standalone bool
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Kind {
	case Text:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	case Variable:
		if t.Group != "" {
			return fmt.Sprintf("%s(%s:%s)", t.Kind, t.Group, t.Name)
		}
		return fmt.Sprintf("%s(%s)", t.Kind, t.Name)
	case Include:
		return fmt.Sprintf("%s(%s:%s)", t.Kind, t.Name, t.Path)
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Name)
	}
}
