// Package prompt renders the agent's prompt templates.
package prompt

import "regexp"

var tokenRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes every {{name}} token in template with vars[name].
// Names absent from vars resolve to the empty string. Substitution is a
// single pass; values containing tokens are not expanded again.
func Render(template string, vars map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[2 : len(tok)-2]
		return vars[name]
	})
}
