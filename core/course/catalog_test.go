package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_Lookup(t *testing.T) {
	cat := DefaultCatalog()

	tests := []struct {
		name     string
		course   string
		wantName string
		wantOk   bool
	}{
		{name: "exact", course: "Intermediate Phase (B1)", wantName: "Intermediate Phase (B1)", wantOk: true},
		{name: "short name", course: "Let's Begin", wantName: "Let's Begin (Foundation Phase)", wantOk: true},
		{name: "short name other case", course: "intermediate phase", wantName: "Intermediate Phase (B1)", wantOk: true},
		{name: "surrounding spaces", course: "  Let's Begin ", wantName: "Let's Begin (Foundation Phase)", wantOk: true},
		{name: "unknown", course: "Advanced Phase", wantOk: false},
		{name: "empty", course: "", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cat.Lookup(tt.course)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestCatalog_Lookup_deterministic(t *testing.T) {
	cat := NewCatalog(
		Entry{Name: "Phase B", Modules: []string{"b"}},
		Entry{Name: "Phase A", Modules: []string{"a"}},
	)
	for i := 0; i < 10; i++ {
		e, ok := cat.Lookup("phase")
		assert.True(t, ok)
		assert.Equal(t, "Phase A", e.Name)
	}
}

func TestCatalog_Resolve(t *testing.T) {
	cat := DefaultCatalog()

	e := cat.Resolve("Let's Begin")
	assert.Len(t, e.Modules, 5)
	assert.Equal(t, "Module 1: Greetings & Introductions", e.Modules[0])

	e = cat.Resolve("Klingon")
	assert.Equal(t, "Klingon", e.Name)
	assert.Equal(t, NotFoundDescription, e.Description)
	assert.Equal(t, []string{"N/A"}, e.Modules)
}

func TestCatalog_isReadOnly(t *testing.T) {
	cat := DefaultCatalog()

	e, _ := cat.Lookup("Let's Begin")
	e.Modules[0] = "changed"
	cat.Entries()[0].Modules[1] = "changed"

	e, _ = cat.Lookup("Let's Begin")
	assert.Equal(t, "Module 1: Greetings & Introductions", e.Modules[0])
	assert.Equal(t, "Module 2: Daily Routines", e.Modules[1])
}

func TestCatalog_Entries(t *testing.T) {
	entries := DefaultCatalog().Entries()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Intermediate Phase (B1)", entries[0].Name)
		assert.Equal(t, "Let's Begin (Foundation Phase)", entries[1].Name)
	}
}
