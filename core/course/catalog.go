// Package course holds the read-only course catalog shown on the public and student pages.
package course

import (
	"sort"
	"strings"
)

// NotFoundDescription is shown when a student's course has no catalog entry.
const NotFoundDescription = "Course details not found. Please contact support."

// Entry describes a course. Description is markdown.
type Entry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Modules     []string `json:"modules"`
}

// Placeholder is the entry returned for unknown courses.
func Placeholder(name string) Entry {
	return Entry{Name: name, Description: NotFoundDescription, Modules: []string{"N/A"}}
}

// Catalog is immutable once built and safe for concurrent use.
type Catalog struct {
	entries map[string]Entry
	keys    []string // sorted
}

func NewCatalog(entries ...Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		e.Modules = append([]string(nil), e.Modules...)
		c.entries[e.Name] = e
	}
	for k := range c.entries {
		c.keys = append(c.keys, k)
	}
	sort.Strings(c.keys)
	return c
}

// Lookup finds the entry for a course name as stored on a student record.
// Student records carry short names ("Let's Begin") while the catalog is keyed
// by full names ("Let's Begin (Foundation Phase)"): an exact match wins, then
// the first key, in sorted order, that contains the name case-insensitively.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, false
	}
	if e, ok := c.entries[name]; ok {
		return c.copy(e), true
	}
	needle := strings.ToLower(name)
	for _, k := range c.keys {
		if strings.Contains(strings.ToLower(k), needle) {
			return c.copy(c.entries[k]), true
		}
	}
	return Entry{}, false
}

// Resolve is Lookup with the placeholder entry on a miss.
func (c *Catalog) Resolve(name string) Entry {
	if e, ok := c.Lookup(name); ok {
		return e
	}
	return Placeholder(name)
}

// Entries returns every entry sorted by name.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.keys))
	for _, k := range c.keys {
		entries = append(entries, c.copy(c.entries[k]))
	}
	return entries
}

func (c *Catalog) copy(e Entry) Entry {
	e.Modules = append([]string(nil), e.Modules...)
	return e
}

func DefaultCatalog() *Catalog {
	return NewCatalog(
		Entry{
			Name: "Let's Begin (Foundation Phase)",
			Description: "Foundation course for **absolute beginners**. Focuses on core grammar, basic vocabulary, " +
				"and simple conversation structures.",
			Modules: []string{
				"Module 1: Greetings & Introductions",
				"Module 2: Daily Routines",
				"Module 3: Telling Time",
				"Module 4: Simple Past Tense",
				"Module 5: Future Plans",
			},
		},
		Entry{
			Name: "Intermediate Phase (B1)",
			Description: "Intermediate course focusing on fluency, complex grammar, and practical application in " +
				"real-world scenarios. Essential for *B1 certification*.",
			Modules: []string{
				"Module 6: Conditional Statements",
				"Module 7: Narrative Tenses",
				"Module 8: Expressing Opinions",
				"Module 9: Reading Comprehension",
				"Module 10: Debate Skills",
			},
		},
	)
}
