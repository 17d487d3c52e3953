package pipeline

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the errgroup fan-out in buildEdges leaves no goroutines
// running past test completion.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
