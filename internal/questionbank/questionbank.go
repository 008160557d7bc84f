// Package questionbank holds the static technical questions used when no
// generator is available, plus the catalogue of supported technologies.
package questionbank

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var embedded []byte

const techPlaceholder = "{tech}"

// OpenQuestion is asked when the candidate listed no usable technology.
const OpenQuestion = "Tell me about a recent technical problem you solved. How did you approach it?"

// Category groups supported technologies for display.
type Category struct {
	Name         string   `yaml:"name"`
	Technologies []string `yaml:"technologies"`
}

type techQuestions struct {
	Name      string
	Questions []string
}

// techList keeps the order of the technologies mapping.
type techList []techQuestions

func (l *techList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: technologies must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		var questions []string
		if err := node.Content[i+1].Decode(&questions); err != nil {
			return fmt.Errorf("technology %q: %w", node.Content[i].Value, err)
		}
		*l = append(*l, techQuestions{Name: node.Content[i].Value, Questions: questions})
	}

	return nil
}

type document struct {
	Technologies techList   `yaml:"technologies"`
	Generic      []string   `yaml:"generic"`
	Categories   []Category `yaml:"categories"`
}

type Bank struct {
	techs      techList
	index      map[string]int
	generic    []string
	categories []Category
}

// Parse reads a bank in the questions.yaml layout.
func Parse(data []byte) (*Bank, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	if len(doc.Generic) == 0 {
		return nil, errors.New("question bank has no generic questions")
	}

	b := &Bank{
		techs:      doc.Technologies,
		index:      make(map[string]int, len(doc.Technologies)),
		generic:    doc.Generic,
		categories: doc.Categories,
	}

	for i, t := range b.techs {
		key := normalize(t.Name)
		if _, dup := b.index[key]; dup {
			return nil, fmt.Errorf("duplicate technology %q", t.Name)
		}
		if len(t.Questions) == 0 {
			return nil, fmt.Errorf("technology %q has no questions", t.Name)
		}
		b.index[key] = i
	}

	return b, nil
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
	defaultErr  error
)

// Default returns the bank compiled into the binary.
func Default() (*Bank, error) {
	defaultOnce.Do(func() {
		defaultBank, defaultErr = Parse(embedded)
	})
	return defaultBank, defaultErr
}

func normalize(tech string) string {
	return strings.ToLower(strings.TrimSpace(tech))
}

// Lookup returns the questions for a known technology, ignoring case.
func (b *Bank) Lookup(tech string) ([]string, bool) {
	i, ok := b.index[normalize(tech)]
	if !ok {
		return nil, false
	}
	return slices.Clone(b.techs[i].Questions), true
}

// Questions returns the questions for tech, falling back to the generic
// templates filled with the technology name.
func (b *Bank) Questions(tech string) []string {
	if questions, ok := b.Lookup(tech); ok {
		return questions
	}

	name := strings.TrimSpace(tech)
	out := make([]string, 0, len(b.generic))
	for _, tmpl := range b.generic {
		out = append(out, strings.ReplaceAll(tmpl, techPlaceholder, name))
	}
	return out
}

// Technologies lists the technologies with dedicated questions in file order.
func (b *Bank) Technologies() []string {
	out := make([]string, 0, len(b.techs))
	for _, t := range b.techs {
		out = append(out, t.Name)
	}
	return out
}

func (b *Bank) Categories() []Category {
	out := make([]Category, 0, len(b.categories))
	for _, c := range b.categories {
		out = append(out, Category{Name: c.Name, Technologies: slices.Clone(c.Technologies)})
	}
	return out
}

// Pick chooses the next question. Technologies are visited round robin by the
// number of questions already asked and a question is never repeated while
// an unasked one remains.
func (b *Bank) Pick(techs, asked []string, r *rand.Rand) string {
	if len(techs) == 0 {
		return OpenQuestion
	}

	seen := make(map[string]bool, len(asked))
	for _, q := range asked {
		seen[q] = true
	}

	start := len(asked) % len(techs)
	for i := range techs {
		tech := techs[(start+i)%len(techs)]

		var fresh []string
		for _, q := range b.Questions(tech) {
			if !seen[q] {
				fresh = append(fresh, q)
			}
		}

		if len(fresh) == 0 {
			continue
		}
		if r == nil {
			return fresh[rand.IntN(len(fresh))]
		}
		return fresh[r.IntN(len(fresh))]
	}

	return OpenQuestion
}
