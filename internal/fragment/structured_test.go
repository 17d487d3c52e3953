package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/diffcontext/internal/types"
)

func TestStructuredConfigStrategyHandlesExpectedExtensions(t *testing.T) {
	s := NewStructuredConfigStrategy()
	assert.True(t, s.CanHandle("Cargo.toml"))
	assert.True(t, s.CanHandle("docker-compose.yml"))
	assert.True(t, s.CanHandle("config.yaml"))
	assert.True(t, s.CanHandle("package.json"))
	assert.False(t, s.CanHandle("main.go"))
}

func TestStructuredConfigStrategySplitsTOMLTopLevelKeys(t *testing.T) {
	text := "[package]\nname = \"x\"\nversion = \"0.1.0\"\n\n[dependencies]\nserde = \"1\"\n"
	lines := splitLines([]byte(text))

	s := NewStructuredConfigStrategy()
	frags, err := s.Fragment("Cargo.toml", lines)
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, "package", frags[0].Symbol)
	assert.Equal(t, "dependencies", frags[1].Symbol)
	assert.Equal(t, types.KindConfigBlock, frags[0].Kind)
}

func TestStructuredConfigStrategySplitsYAMLTopLevelKeys(t *testing.T) {
	text := "name: ci\non:\n  push:\n    branches: [main]\njobs:\n  build:\n    runs-on: ubuntu\n"
	lines := splitLines([]byte(text))

	s := NewStructuredConfigStrategy()
	frags, err := s.Fragment("workflow.yml", lines)
	require.NoError(t, err)
	require.NotEmpty(t, frags)

	var gotJobs bool
	for _, f := range frags {
		if f.Symbol == "jobs" {
			gotJobs = true
		}
	}
	assert.True(t, gotJobs)
}

func TestStructuredConfigStrategySplitsJSONTopLevelKeys(t *testing.T) {
	text := "{\n  \"name\": \"pkg\",\n  \"version\": \"1.0.0\",\n  \"scripts\": {\n    \"test\": \"go test\"\n  }\n}\n"
	lines := splitLines([]byte(text))

	s := NewStructuredConfigStrategy()
	frags, err := s.Fragment("package.json", lines)
	require.NoError(t, err)
	require.NotEmpty(t, frags)
}

func TestStructuredConfigStrategyReturnsNilOnUnparseableInput(t *testing.T) {
	s := NewStructuredConfigStrategy()
	_, err := s.Fragment("broken.toml", splitLines([]byte("not = [valid toml")))
	assert.Error(t, err)
}
