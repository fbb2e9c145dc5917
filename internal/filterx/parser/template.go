package parser

import (
	"fmt"
	"strings"

	"github.com/rakunlabs/filterx/internal/filterx/expr"
)

// splitTemplate breaks a backtick literal's raw contents into literal
// text runs and ${...} interpolation expressions (spec.md §4.11's
// "compiled host-template"). Brace depth is tracked so a nested object
// literal inside an interpolation (${a.b({x:1})}) still finds its
// closing brace; string literals inside an interpolation are not
// brace-depth aware, a narrow simplification documented alongside this
// function's grounding entry.
func splitTemplate(raw string) ([]expr.TemplatePart, error) {
	var parts []expr.TemplatePart
	var lit strings.Builder

	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			if lit.Len() > 0 {
				parts = append(parts, expr.TemplatePart{Literal: lit.String()})
				lit.Reset()
			}
			depth := 1
			j := i + 2
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			if depth != 0 {
				return nil, fmt.Errorf("unterminated ${...} interpolation")
			}
			parts = append(parts, expr.TemplatePart{JSExpr: raw[i+2 : j]})
			i = j + 1
			continue
		}
		lit.WriteByte(raw[i])
		i++
	}
	if lit.Len() > 0 {
		parts = append(parts, expr.TemplatePart{Literal: lit.String()})
	}
	return parts, nil
}
