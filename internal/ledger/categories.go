package ledger

import (
	"strings"
	"sync"
)

// DefaultCategories seeds the category suggestions.
var DefaultCategories = []string{
	"Alimentação",
	"Transporte",
	"Moradia",
	"Saúde",
	"Educação",
	"Lazer",
	"Salário",
	"Outros",
}

// Categories is the local list of category suggestions offered by the
// transaction form. Additions live only as long as the process.
type Categories struct {
	mu    sync.RWMutex
	names []string
}

// NewCategories returns a list seeded with DefaultCategories.
func NewCategories() *Categories {
	names := make([]string, len(DefaultCategories))
	copy(names, DefaultCategories)
	return &Categories{names: names}
}

// Add appends name unless it is blank or already present in any letter case,
// and reports whether the list changed.
func (c *Categories) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.names {
		if strings.EqualFold(existing, name) {
			return false
		}
	}
	c.names = append(c.names, name)
	return true
}

// Contains reports whether name is in the list, ignoring letter case.
func (c *Categories) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, existing := range c.names {
		if strings.EqualFold(existing, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// All returns the suggestions in insertion order.
func (c *Categories) All() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
