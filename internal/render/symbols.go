package render

import (
	"fmt"
	"sort"
)

// Role is what a symbol stands for in the generated script
type Role string

const (
	RoleSketch   Role = "sketch"
	RoleCurve    Role = "curve"
	RoleProfiles Role = "profiles"
	RoleFeature  Role = "feature"
	RoleBody     Role = "body"
)

// Symbol is a script variable introduced by one fragment for later fragments
type Symbol struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Context is the set of symbols defined so far in one assembly. It only grows:
// symbols are never removed or rebound.
type Context struct {
	symbols []Symbol
	names   map[string]bool
}

// NewContext returns an empty symbol context
func NewContext() *Context {
	return &Context{names: make(map[string]bool)}
}

// Define adds symbols to the context. Redefining a name is an error.
func (c *Context) Define(symbols ...Symbol) error {
	for _, s := range symbols {
		if c.names[s.Name] {
			return fmt.Errorf("symbol %q already defined", s.Name)
		}
		c.names[s.Name] = true
		c.symbols = append(c.symbols, s)
	}
	return nil
}

// Latest returns the most recently defined symbol with the given role
func (c *Context) Latest(role Role) (Symbol, bool) {
	for i := len(c.symbols) - 1; i >= 0; i-- {
		if c.symbols[i].Role == role {
			return c.symbols[i], true
		}
	}
	return Symbol{}, false
}

// Has reports whether name is already bound
func (c *Context) Has(name string) bool {
	return c.names[name]
}

// Symbols returns the defined symbols in definition order
func (c *Context) Symbols() []Symbol {
	return append([]Symbol(nil), c.symbols...)
}

// Names returns the defined symbol names in sorted order
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.names))
	for name := range c.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
