// Package names generates human-friendly display names of the form
// AdjectiveColor (e.g. "SilentCrimson"), used for anonymous participants
// and session name suffixes. Names are unique-ish, not guaranteed unique;
// callers that need uniqueness retry on collision.
package names

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

var adjectives = []string{
	"agile", "amber", "ancient", "bold", "brave", "bright", "calm", "clever",
	"cosmic", "crisp", "curious", "daring", "dreamy", "eager", "fancy",
	"fierce", "gentle", "glad", "grand", "happy", "hidden", "humble", "jolly",
	"keen", "lively", "lucky", "mellow", "merry", "mighty", "noble", "proud",
	"quick", "quiet", "rapid", "silent", "sly", "snappy", "solar", "stellar",
	"sunny", "swift", "tidy", "vivid", "wild", "wise", "witty", "zesty",
}

var colors = []string{
	"amber", "aqua", "azure", "beige", "blue", "bronze", "cherry", "cobalt",
	"copper", "coral", "crimson", "cyan", "ebony", "emerald", "fuchsia",
	"gold", "green", "indigo", "ivory", "jade", "lavender", "lime", "magenta",
	"maroon", "mauve", "mint", "navy", "ochre", "olive", "onyx", "orange",
	"pearl", "pink", "plum", "purple", "red", "rose", "ruby", "russet",
	"saffron", "sapphire", "scarlet", "silver", "teal", "violet", "white",
}

// Generator produces display names from a private random source.
type Generator struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewGenerator creates a generator seeded from the current time.
func NewGenerator() *Generator {
	return &Generator{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededGenerator creates a deterministic generator for tests.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{r: rand.New(rand.NewSource(seed))}
}

// Generate returns a capitalized AdjectiveColor name.
func (g *Generator) Generate() string {
	g.mu.Lock()
	adj := adjectives[g.r.Intn(len(adjectives))]
	col := colors[g.r.Intn(len(colors))]
	g.mu.Unlock()
	return capitalize(adj) + capitalize(col)
}

var defaultGen = NewGenerator()

// Generate returns a name from the shared default generator.
func Generate() string {
	return defaultGen.Generate()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
