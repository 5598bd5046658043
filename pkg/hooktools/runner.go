package hooktools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
)

// Runner executes a Juju hook tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) ([]byte, error)
}

// ExecRunner runs hook tools as child processes. The tools are found on PATH,
// which Juju sets up for every hook invocation.
type ExecRunner struct {
	Log logr.Logger
}

func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Log.V(2).Info("Running hook tool", "tool", tool, "args", args)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to run %s: %w: %s", tool, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}
