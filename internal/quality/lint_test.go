package quality

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLintingCompliance runs golangci-lint over the module when it is installed
func TestLintingCompliance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping lint in short mode")
	}
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		t.Skip("golangci-lint not found, skipping linting test")
	}

	cmd := exec.Command("golangci-lint", "run", "./...")
	cmd.Dir = "../.."
	output, err := cmd.CombinedOutput()

	assert.NoError(t, err, "golangci-lint reported issues:\n%s", output)
}

// TestVet runs go vet over the module
func TestVet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping vet in short mode")
	}
	gobin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not found")
	}

	cmd := exec.Command(gobin, "vet", "./...")
	cmd.Dir = "../.."
	output, err := cmd.CombinedOutput()

	assert.NoError(t, err, "go vet reported issues:\n%s", output)
}
