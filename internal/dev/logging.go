package dev

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

func (o *DevOrchestrator) formatLog(processName, line string) {
	line = strings.TrimRight(ansiEscape.ReplaceAllString(line, ""), " \r")
	if strings.TrimSpace(line) == "" {
		return
	}

	// Skip noisy logs
	if strings.Contains(line, "Starting compilation") ||
		strings.Contains(line, "Watching for file changes") {
		return
	}

	switch {
	case strings.Contains(line, "error"):
		o.logger.Warn("🔎 " + processName + ": " + line)
	default:
		o.logger.Info("🔎 " + processName + ": " + line)
	}
}
