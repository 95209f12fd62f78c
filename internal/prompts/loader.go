// Package prompts holds the question-generation prompts sent to the language
// model. Prompts live in an embedded JSON file keyed by assessment section.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jonathan/hirezaa/internal/types"
)

const assessmentFile = "assessment.json"

//go:embed assessment.json
var promptFiles embed.FS

var (
	loadOnce sync.Once
	loaded   map[string]string
	loadErr  error
)

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z]+)\}\}`)

// Vars fills the placeholders of a question prompt.
type Vars struct {
	Count      int
	Difficulty types.Difficulty
	Topics     []string
}

func (v Vars) values() map[string]string {
	return map[string]string{
		"Count":      strconv.Itoa(v.Count),
		"Difficulty": string(v.Difficulty),
		"Topics":     strings.Join(v.Topics, ", "),
	}
}

// KeyFor returns the prompt key used to generate questions for a section.
func KeyFor(section types.Section) string {
	return "generate-" + string(section)
}

// Get returns the raw prompt stored under key.
func Get(key string) (string, error) {
	prompts, err := load()
	if err != nil {
		return "", err
	}
	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, assessmentFile)
	}
	return prompt, nil
}

// ForSection renders the generation prompt for section. A placeholder
// that Vars does not cover is an error rather than literal text sent to
// the model.
func ForSection(section types.Section, vars Vars) (string, error) {
	if vars.Count <= 0 {
		return "", fmt.Errorf("prompt for %s: count must be positive", section)
	}
	if len(vars.Topics) == 0 {
		return "", fmt.Errorf("prompt for %s: no topics", section)
	}
	template, err := Get(KeyFor(section))
	if err != nil {
		return "", err
	}
	return Format(template, vars.values())
}

// Format replaces {{.Key}} placeholders with values from data and fails on
// any placeholder left unfilled.
func Format(template string, data map[string]string) (string, error) {
	var missing []string
	result := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if v, ok := data[key]; ok {
			return v
		}
		missing = append(missing, key)
		return m
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unfilled prompt placeholders: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Keys lists the available prompt keys in sorted order.
func Keys() ([]string, error) {
	prompts, err := load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func load() (map[string]string, error) {
	loadOnce.Do(func() {
		data, err := promptFiles.ReadFile(assessmentFile)
		if err != nil {
			loadErr = fmt.Errorf("failed to read prompt file %s: %w", assessmentFile, err)
			return
		}
		if err := json.Unmarshal(data, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to parse prompt file %s: %w", assessmentFile, err)
		}
	})
	return loaded, loadErr
}
