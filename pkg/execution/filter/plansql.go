package filter

import (
	"strconv"
	"strings"
)

// PlanSQL renders this filter's part of the execution plan. isJoin adds
// the join clause with its ON condition ("ON 1=1" when there is none).
// Index usage, pushed-down index conditions, residual filter conditions
// and scan counts appear as comment annotations.
func (f *TableFilter) PlanSQL(isJoin bool) string {
	var b strings.Builder
	if isJoin {
		if f.joinOuter {
			b.WriteString("LEFT OUTER JOIN ")
		} else {
			b.WriteString("INNER JOIN ")
		}
	}
	if f.nestedJoin != nil {
		var nb strings.Builder
		for n := f.nestedJoin; n != nil; n = n.join {
			nb.WriteString(n.PlanSQL(n != f.nestedJoin))
			nb.WriteByte('\n')
		}
		nested := nb.String()
		enclose := !strings.HasPrefix(nested, "(")
		if enclose {
			b.WriteString("(\n")
		}
		b.WriteString(indent(strings.TrimRight(nested, "\n"), 4))
		if enclose {
			b.WriteString("\n)")
		}
		if isJoin {
			b.WriteString(" ON ")
			if f.joinCondition == nil {
				// need to have a ON expression, otherwise the nesting is
				// unclear
				b.WriteString("1=1")
			} else {
				b.WriteString(unEnclose(f.joinCondition.SQL()))
			}
		}
		return b.String()
	}
	b.WriteString(f.table.Name())
	if f.alias != f.table.Name() {
		b.WriteByte(' ')
		b.WriteString(f.alias)
	}
	if f.idx != nil {
		b.WriteString(" /* ")
		b.WriteString(f.idx.Name())
		if len(f.indexConditions) > 0 {
			b.WriteString(": ")
			for i, cond := range f.indexConditions {
				if i > 0 {
					b.WriteString(" AND ")
				}
				b.WriteString(cond.SQL())
			}
		}
		b.WriteString(" */")
	}
	if isJoin {
		b.WriteString(" ON ")
		if f.joinCondition == nil {
			b.WriteString("1=1")
		} else {
			b.WriteString(unEnclose(f.joinCondition.SQL()))
		}
	}
	if f.filterCondition != nil {
		b.WriteString(" /* WHERE ")
		b.WriteString(unEnclose(f.filterCondition.SQL()))
		b.WriteString(" */")
	}
	if f.scanCount > 0 {
		b.WriteString("\n    /* scanCount: ")
		b.WriteString(strconv.Itoa(f.scanCount))
		b.WriteString(" */")
	}
	return b.String()
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}

// unEnclose strips one enclosing pair of parentheses, if present.
func unEnclose(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return s[1 : len(s)-1]
	}
	return s
}
