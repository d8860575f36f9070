package tilde

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// PrintParts writes a table of the parts of t and its nested templates.
func PrintParts(w io.Writer, t *Template) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tTYPE\tOFFSET\tDETAIL")
	writeParts(tw, t)
	return tw.Flush()
}

func writeParts(w io.Writer, t *Template) {
	name := FQN(t)
	if name == "" {
		name = t.name
	}
	for _, p := range t.parts {
		switch p := p.(type) {
		case *TextPart:
			fmt.Fprintf(w, "%s\ttext\t%d\t%s\n", name, p.start, abbreviate(p.text, 40))
		case *VariablePart:
			detail := p.name
			if p.group != NoGroup {
				detail = string(p.group) + ":" + detail
			}
			if p.hasPlaceholder {
				detail += " (placeholder " + abbreviate(p.placeholder, 20) + ")"
			}
			fmt.Fprintf(w, "%s\tvariable\t%d\t%s\n", name, p.start, detail)
		case *NestedTemplatePart:
			kind := "template"
			detail := p.tmpl.name
			if p.included {
				kind = "include"
				detail += " <- " + p.path
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, kind, p.start, detail)
		}
	}
	for _, n := range t.nested {
		writeParts(w, n)
	}
}

func abbreviate(s string, max int) string {
	q := strconv.Quote(s)
	if len(q) <= max {
		return q
	}
	return q[:max-4] + "...\""
}

