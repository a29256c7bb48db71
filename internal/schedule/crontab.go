package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner reads and replaces the user crontab.
type Runner interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, content string) error
}

// CrontabRunner shells out to the crontab binary.
type CrontabRunner struct {
	Binary string
}

func (r CrontabRunner) binary() string {
	if strings.TrimSpace(r.Binary) == "" {
		return "crontab"
	}
	return r.Binary
}

// Read returns the current crontab. A user without one gets an empty string.
func (r CrontabRunner) Read(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary(), "-l") //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.Contains(strings.ToLower(stderr.String()), "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("crontab -l: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Write installs content as the new crontab.
func (r CrontabRunner) Write(ctx context.Context, content string) error {
	cmd := exec.CommandContext(ctx, r.binary(), "-") //nolint:gosec
	cmd.Stdin = strings.NewReader(content)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("crontab -: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
