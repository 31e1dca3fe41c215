package names

import (
	"strings"
	"testing"
	"unicode"
)

func TestGenerateFormat(t *testing.T) {
	g := NewSeededGenerator(1)
	for i := 0; i < 100; i++ {
		name := g.Generate()
		if name == "" {
			t.Fatal("empty name")
		}
		if strings.ContainsAny(name, " -_") {
			t.Fatalf("name %q contains separator", name)
		}
		upper := 0
		for _, r := range name {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if upper != 2 {
			t.Fatalf("name %q should have exactly two capitalized words", name)
		}
	}
}

func TestSeededGeneratorIsDeterministic(t *testing.T) {
	a := NewSeededGenerator(42)
	b := NewSeededGenerator(42)
	for i := 0; i < 20; i++ {
		if got, want := a.Generate(), b.Generate(); got != want {
			t.Fatalf("sequence diverged at %d: %q != %q", i, got, want)
		}
	}
}
