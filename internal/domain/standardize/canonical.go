package standardize

import (
	"sort"
	"strings"
)

// Canonicalizer maps abbreviated team names to their canonical form.
// Names without an alias pass through trimmed.
type Canonicalizer struct {
	aliases map[string]string
}

// NewCanonicalizer copies aliases; later changes to the argument have no effect.
func NewCanonicalizer(aliases map[string]string) Canonicalizer {
	c := Canonicalizer{aliases: make(map[string]string, len(aliases))}
	for k, v := range aliases {
		c.aliases[strings.TrimSpace(k)] = v
	}
	return c
}

// Canonical returns the canonical form of name.
func (c Canonicalizer) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if to, ok := c.aliases[name]; ok {
		return to
	}
	return name
}

// Conflicts lists canonical values that are themselves aliases of a different
// name. Canonical is idempotent exactly when this is empty.
func (c Canonicalizer) Conflicts() []string {
	var out []string
	seen := make(map[string]bool)
	for _, to := range c.aliases {
		if again, ok := c.aliases[strings.TrimSpace(to)]; ok && again != to && !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	sort.Strings(out)
	return out
}
