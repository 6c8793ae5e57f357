//go:build windows

package dev

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "cmd", "/C", command)
}

// startWithOutput starts cmd with stdout and stderr merged into one pipe
func startWithOutput(cmd *exec.Cmd) (io.ReadCloser, error) {
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start typecheck: %w", err)
	}
	return out, nil
}
