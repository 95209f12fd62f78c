package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hirezaa/internal/types"
)

func TestEverySectionHasPrompt(t *testing.T) {
	for _, section := range types.Sections {
		prompt, err := Get(KeyFor(section))
		require.NoError(t, err, section)
		assert.Contains(t, prompt, "{{.Count}}")
		assert.Contains(t, prompt, "{{.Topics}}")
	}
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestForSection(t *testing.T) {
	prompt, err := ForSection(types.SectionMCQ, Vars{
		Count:      3,
		Difficulty: types.DifficultyMedium,
		Topics:     []string{"go", "sql"},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Generate exactly 3 multiple-choice questions")
	assert.Contains(t, prompt, "medium difficulty")
	assert.Contains(t, prompt, "go, sql")
	assert.NotContains(t, prompt, "{{.")
}

func TestForSection_Invalid(t *testing.T) {
	_, err := ForSection(types.SectionSQL, Vars{Count: 0, Topics: []string{"joins"}})
	assert.ErrorContains(t, err, "count must be positive")

	_, err = ForSection(types.SectionSQL, Vars{Count: 2})
	assert.ErrorContains(t, err, "no topics")

	_, err = ForSection(types.Section("essay"), Vars{Count: 2, Topics: []string{"x"}})
	assert.ErrorContains(t, err, "not found")
}

func TestFormat(t *testing.T) {
	result, err := Format("Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_MissingPlaceholder(t *testing.T) {
	_, err := Format("{{.Count}} questions on {{.Topics}}", map[string]string{"Count": "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Topics")
}

func TestKeys(t *testing.T) {
	keys, err := Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"generate-coding", "generate-mcq", "generate-sql"}, keys)
}
