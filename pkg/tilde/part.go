package tilde

// Part is one structural element of a template: literal text, a variable
// or a nested template. The set of implementations is closed.
type Part interface {
	// Start is the byte offset of the part in the template's source.
	Start() int
	part()
}

// TextPart is a run of literal text.
type TextPart struct {
	text  string
	start int
}

// Text returns the literal text.
func (p *TextPart) Text() string { return p.text }

// Start implements Part.
func (p *TextPart) Start() int { return p.start }

func (*TextPart) part() {}

// VariablePart is a variable placeholder.
type VariablePart struct {
	name           string
	group          VarGroup
	placeholder    string
	hasPlaceholder bool
	comment        bool
	start          int
}

// Name returns the variable name. Dotted names are paths into the data.
func (p *VariablePart) Name() string { return p.name }

// Group returns the var-group declared in the template, or NoGroup.
func (p *VariablePart) Group() VarGroup { return p.group }

// Placeholder returns the default text and whether one was declared.
func (p *VariablePart) Placeholder() (string, bool) { return p.placeholder, p.hasPlaceholder }

// Start implements Part.
func (p *VariablePart) Start() int { return p.start }

func (*VariablePart) part() {}

// NestedTemplatePart embeds a child template, defined inline or included.
type NestedTemplatePart struct {
	tmpl     *Template
	included bool
	path     string
	start    int
}

// Template returns the child template.
func (p *NestedTemplatePart) Template() *Template { return p.tmpl }

// Included reports whether the template came from an include tag.
func (p *NestedTemplatePart) Included() bool { return p.included }

// Path returns the include path, or "" for inline templates.
func (p *NestedTemplatePart) Path() string { return p.path }

// Start implements Part.
func (p *NestedTemplatePart) Start() int { return p.start }

func (*NestedTemplatePart) part() {}
