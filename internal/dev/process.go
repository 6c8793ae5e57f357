package dev

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// runTypecheck runs command through the shell in dir, streaming its output
// into the log. A non-zero exit is returned as an error.
func (o *DevOrchestrator) runTypecheck(ctx context.Context, command, dir string) error {
	start := time.Now()
	o.logger.Info("🔎 Running typecheck...", slog.String("cmd", command))

	cmd := shellCommand(ctx, command)
	cmd.Dir = dir

	out, err := startWithOutput(cmd)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		o.formatLog("Typecheck", scanner.Text())
	}
	out.Close() //nolint:errcheck

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("typecheck %q: %w", command, err)
	}

	o.logger.Info("✅ Typecheck passed", slog.Duration("elapsed", time.Since(start)))
	return nil
}
