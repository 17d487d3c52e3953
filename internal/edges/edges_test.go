package edges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBuildersIncludesEverySpecFamily(t *testing.T) {
	builders := DefaultBuilders()
	names := make(map[string]bool, len(builders))
	for _, b := range builders {
		names[b.Name()] = true
	}
	for _, want := range []string{"semantic", "configuration", "structural", "document", "similarity", "history"} {
		assert.True(t, names[want], "missing builder family %q", want)
	}
	assert.Len(t, builders, 6)
}
