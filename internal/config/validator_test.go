package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorClampsOutOfRangeAlpha(t *testing.T) {
	p := Policy{Alpha: 0.99, Tau: 0.01}
	NewValidator().Apply(&p)

	assert.Equal(t, 0.65, p.Alpha)
	assert.Equal(t, 0.05, p.Tau)
}

func TestValidatorFillsZeroValuesWithDefaults(t *testing.T) {
	p := Policy{}
	NewValidator().Apply(&p)

	def := Default()
	assert.Equal(t, def.Alpha, p.Alpha)
	assert.Equal(t, def.Tau, p.Tau)
	assert.Equal(t, def.MaxUniverse, p.MaxUniverse)
	assert.Equal(t, def.OverheadPerFragment, p.OverheadPerFragment)
	assert.NotNil(t, p.Semantic.ByExtension)
	assert.NotNil(t, p.Similarity.DynamicExtensions)
}

func TestValidatorLeavesInRangeValuesAlone(t *testing.T) {
	p := Default()
	p.Alpha = 0.55
	before := p.Alpha
	NewValidator().Apply(&p)
	assert.Equal(t, before, p.Alpha)
}
