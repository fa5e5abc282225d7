package lp

import (
	"fmt"
	"io"
	"strings"
)

// Write serializes m to the CPLEX-LP-adjacent textual format named in spec
// §6's "LP model dump": a plain-text, human-auditable MPS relative that the
// chosen external solver accepts directly. Only this round-trip contract is
// part of the interface; no in-process parser for it is required.
func Write(w io.Writer, m *Model) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\\ %s\n", m.Name)

	if m.Maximize {
		b.WriteString("Maximize\n")
	} else {
		b.WriteString("Minimize\n")
	}
	fmt.Fprintf(&b, " obj: %s\n", formatExpr(m.Objective))

	b.WriteString("Subject To\n")
	for _, c := range m.Constraints {
		fmt.Fprintf(&b, " %s: %s %s %s\n", c.Name, formatExpr(c.Expr), c.Op, trimNum(c.RHS))
	}

	b.WriteString("Bounds\n")
	for _, v := range m.varOrder {
		if m.Binaries[v] {
			continue
		}
		bnd := m.Bounds[v]
		if bnd.HasUpper {
			fmt.Fprintf(&b, " %s <= %s <= %s\n", trimNum(bnd.Lower), v, trimNum(bnd.Upper))
		} else {
			fmt.Fprintf(&b, " %s >= %s\n", v, trimNum(bnd.Lower))
		}
	}

	if len(m.Binaries) > 0 {
		b.WriteString("Binary\n")
		for _, v := range m.varOrder {
			if m.Binaries[v] {
				fmt.Fprintf(&b, " %s\n", v)
			}
		}
	}

	b.WriteString("End\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func formatExpr(e Expr) string {
	if len(e) == 0 {
		return "0"
	}
	var parts []string
	for i, t := range e {
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if i == 0 && sign == "+" {
			parts = append(parts, fmt.Sprintf("%s %s", trimNum(coef), t.Var))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", sign, trimNum(coef), t.Var))
	}
	return strings.Join(parts, " ")
}

func trimNum(f float64) string {
	s := fmt.Sprintf("%.10g", f)
	return s
}
