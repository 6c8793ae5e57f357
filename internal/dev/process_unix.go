//go:build unix

package dev

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/creack/pty"
)

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// startWithOutput starts cmd on a PTY so tools keep their colored output
func startWithOutput(cmd *exec.Cmd) (io.ReadCloser, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to start typecheck with PTY: %w", err)
	}
	return ptmx, nil
}
