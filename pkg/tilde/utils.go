package tilde

import (
	"strings"
)

// VariableOccurrence describes one appearance of a variable in a template
// tree. Position counts occurrences in document order across the tree.
type VariableOccurrence struct {
	// FQN is the variable name qualified by its nested template names,
	// relative to the template the occurrences were collected from.
	FQN            string
	Name           string
	Group          VarGroup
	Placeholder    string
	HasPlaceholder bool
	Position       int
}

// FQN returns the fully-qualified name of t: the names of its ancestors
// and itself joined by dots, without the root. It is "" for a root.
func FQN(t *Template) string {
	if t.parent == nil {
		return ""
	}
	parent := FQN(t.parent)
	if parent == "" {
		return t.name
	}
	return parent + "." + t.name
}

// FQNOf returns the fully-qualified name of a variable or nested template
// of t.
func FQNOf(t *Template, name string) string {
	return join(FQN(t), name)
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// relativeFQN returns the name of t relative to its ancestor anchor.
func relativeFQN(anchor, t *Template) string {
	var names []string
	for cur := t; cur != nil && cur != anchor; cur = cur.parent {
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}

// AllVariableOccurrences lists every variable occurrence under t in
// document order.
func AllVariableOccurrences(t *Template) []VariableOccurrence {
	var out []VariableOccurrence
	collectOccurrences(t, "", &out)
	return out
}

func collectOccurrences(t *Template, prefix string, out *[]VariableOccurrence) {
	for _, p := range t.parts {
		switch p := p.(type) {
		case *VariablePart:
			*out = append(*out, VariableOccurrence{
				FQN:            join(prefix, p.name),
				Name:           p.name,
				Group:          p.group,
				Placeholder:    p.placeholder,
				HasPlaceholder: p.hasPlaceholder,
				Position:       len(*out),
			})
		case *NestedTemplatePart:
			collectOccurrences(p.tmpl, join(prefix, p.tmpl.name), out)
		}
	}
}

// TemplateHierarchy returns an indented listing of t and its nested
// templates, one per line.
func TemplateHierarchy(t *Template) string {
	var sb strings.Builder
	writeHierarchy(&sb, t, 0)
	return sb.String()
}

func writeHierarchy(sb *strings.Builder, t *Template, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(t.name)
	sb.WriteByte('\n')
	for _, n := range t.nested {
		writeHierarchy(sb, n, depth+1)
	}
}

// FindNestedTemplate returns the template at the dotted path fqn below t.
func FindNestedTemplate(t *Template, fqn string) (*Template, bool) {
	if fqn == "" {
		return nil, false
	}
	cur := t
	for _, name := range strings.Split(fqn, ".") {
		next, ok := cur.NestedTemplate(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ContainingTemplate finds the template that directly holds the variable
// identified by fqn relative to t. It returns that template and the
// variable's local name. Leading segments naming nested templates are
// descended into first; what remains is the variable name, which may
// itself be dotted.
func ContainingTemplate(t *Template, fqn string) (*Template, string, bool) {
	cur, rest := t, fqn
	for {
		if cur.HasVariable(rest) {
			return cur, rest, true
		}
		head, tail, found := strings.Cut(rest, ".")
		if !found {
			return nil, "", false
		}
		next, ok := cur.NestedTemplate(head)
		if !ok {
			return nil, "", false
		}
		cur, rest = next, tail
	}
}

// AllVariableFQNs lists the distinct variables under t. With relative set
// the names are relative to t, otherwise they are qualified from the root.
func AllVariableFQNs(t *Template, relative bool) []string {
	prefix := FQN(t)
	if relative {
		prefix = ""
	}
	var out []string
	collectFQNs(t, prefix, &out)
	return out
}

func collectFQNs(t *Template, prefix string, out *[]string) {
	for _, v := range t.vars {
		*out = append(*out, join(prefix, v))
	}
	for _, n := range t.nested {
		collectFQNs(n, join(prefix, n.name), out)
	}
}

// CountVariables returns the number of distinct variables in t and all of
// its nested templates, counting each template separately.
func CountVariables(t *Template) int {
	return t.subtreeVars
}
