package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_BuiltInPrompts(t *testing.T) {
	for _, name := range []string{ProfileExtraction, CVGeneration, TechnicalTestGeneration} {
		p, ok := Default(name)
		require.True(t, ok, "missing default %s", name)
		assert.NotEmpty(t, p.Template)
		assert.NotEmpty(t, p.Description)
	}
}

func TestDefault_Unknown(t *testing.T) {
	_, ok := Default("nonexistent")
	assert.False(t, ok)
}

func TestDefault_DeclaredVariablesMatchTemplate(t *testing.T) {
	for _, name := range DefaultNames() {
		p := MustDefault(name)
		assert.ElementsMatch(t, p.Variables, Placeholders(p.Template), "prompt %s", name)
	}
}

func TestDefault_RendersWithDeclaredVariables(t *testing.T) {
	for _, name := range DefaultNames() {
		p := MustDefault(name)
		vars := make(map[string]string, len(p.Variables))
		for _, v := range p.Variables {
			vars[v] = "value-of-" + v
		}
		out, err := Substitute(p.Template, vars)
		require.NoError(t, err, "prompt %s", name)
		for _, v := range p.Variables {
			assert.Contains(t, out, "value-of-"+v)
		}
	}
}

func TestMustDefault_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustDefault("nonexistent")
	})
}

func TestDefaultNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{CVGeneration, ProfileExtraction, TechnicalTestGeneration}, DefaultNames())
}
