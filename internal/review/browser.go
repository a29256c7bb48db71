package review

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Launcher opens a local file or URL for the reviewer.
type Launcher interface {
	Open(ctx context.Context, target string) error
}

// CommandLauncher runs a configured command with the target appended, for
// example "xdg-open" or "firefox --new-tab". The command is not waited on.
type CommandLauncher struct {
	Command string
}

// Open starts the browser command. An empty command disables launching.
func (l CommandLauncher) Open(ctx context.Context, target string) error {
	fields := strings.Fields(l.Command)
	if len(fields) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(fields[0], append(fields[1:], target)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", fields[0], err)
	}
	return cmd.Process.Release()
}
