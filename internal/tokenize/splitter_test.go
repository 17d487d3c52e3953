package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCamelCase(t *testing.T) {
	assert.Equal(t, []string{"foo", "Bar", "Baz"}, Split("fooBarBaz"))
}

func TestSplitSnakeCase(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar", "baz"}, Split("foo_bar_baz"))
}

func TestSplitAcronym(t *testing.T) {
	assert.Equal(t, []string{"XML", "Parser"}, Split("XMLParser"))
}

func TestIdentifiersDropsStopwordsAndShortTokens(t *testing.T) {
	ids := Identifiers("func computeTotalPrice(a, b int) int { return a + b }")
	_, hasFunc := ids["func"]
	_, hasReturn := ids["return"]
	assert.False(t, hasFunc)
	assert.False(t, hasReturn)

	_, hasCompute := ids["compute"]
	_, hasTotal := ids["total"]
	_, hasPrice := ids["price"]
	assert.True(t, hasCompute)
	assert.True(t, hasTotal)
	assert.True(t, hasPrice)

	_, hasA := ids["a"]
	assert.False(t, hasA)
}

func TestIdentifiersHandlesSnakeCaseIdentifiers(t *testing.T) {
	ids := Identifiers("xyz_gizmo = load_xyz_gizmo()")
	_, hasGizmo := ids["gizmo"]
	assert.True(t, hasGizmo)
}
