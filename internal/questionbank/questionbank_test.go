package questionbank

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBankLoads(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	techs := bank.Technologies()
	require.Len(t, techs, 17)
	assert.Equal(t, "Python", techs[0])
	assert.Equal(t, "Spring Boot", techs[len(techs)-1])

	for _, tech := range techs {
		questions, ok := bank.Lookup(tech)
		require.True(t, ok, tech)
		assert.Len(t, questions, 10, tech)
	}

	categories := bank.Categories()
	require.NotEmpty(t, categories)
	assert.Equal(t, "Frontend", categories[0].Name)
	assert.Contains(t, categories[0].Technologies, "React")
}

func TestLookupIgnoresCase(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	upper, ok := bank.Lookup("  DOCKER ")
	require.True(t, ok)

	lower, ok := bank.Lookup("docker")
	require.True(t, ok)
	assert.Equal(t, upper, lower)

	_, ok = bank.Lookup("Elixir")
	assert.False(t, ok)
}

func TestQuestionsFallBackToGenericTemplates(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	questions := bank.Questions(" Elixir ")
	require.Len(t, questions, 5)
	assert.Equal(t, "Can you explain your experience with Elixir?", questions[0])
	for _, q := range questions {
		assert.NotContains(t, q, techPlaceholder)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	questions, _ := bank.Lookup("Python")
	original := questions[0]
	questions[0] = "mutated"

	again, _ := bank.Lookup("Python")
	assert.Equal(t, original, again[0])
}

func TestPickNeverRepeatsWhileQuestionsRemain(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(1, 2))
	techs := []string{"Python", "Elixir"}

	var asked []string
	seen := map[string]bool{}
	for i := 0; i < 15; i++ {
		q := bank.Pick(techs, asked, r)
		require.False(t, seen[q], "repeated %q", q)
		seen[q] = true
		asked = append(asked, q)
	}

	// Both technologies are exhausted.
	assert.Equal(t, OpenQuestion, bank.Pick(techs, asked, r))
}

func TestPickRotatesTechnologies(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(3, 4))
	first := bank.Pick([]string{"Elixir", "Zig"}, nil, r)
	assert.Contains(t, first, "Elixir")

	second := bank.Pick([]string{"Elixir", "Zig"}, []string{first}, r)
	assert.Contains(t, second, "Zig")
}

func TestPickWithoutTechnologies(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)
	assert.Equal(t, OpenQuestion, bank.Pick(nil, nil, nil))
}

func TestParseRejectsBrokenBanks(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no generic", data: "technologies:\n  Go: [\"q\"]\n"},
		{name: "duplicate", data: "technologies:\n  Go: [\"a\"]\n  go: [\"b\"]\ngeneric: [\"x {tech}\"]\n"},
		{name: "empty technology", data: "technologies:\n  Go: []\ngeneric: [\"x {tech}\"]\n"},
		{name: "technologies not a mapping", data: "technologies: [Go]\ngeneric: [\"x {tech}\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
		})
	}
}
