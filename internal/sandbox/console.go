package sandbox

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// LogEntry is a console call made by page scripts
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type consoleLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *consoleLog) add(level, msg string) {
	c.mu.Lock()
	c.entries = append(c.entries, LogEntry{Level: level, Message: msg})
	c.mu.Unlock()
}

func (c *consoleLog) snapshot() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogEntry(nil), c.entries...)
}

func (p *Page) installConsole(vm *goja.Runtime) error {
	console := vm.NewObject()
	for _, level := range []string{"debug", "error", "info", "log", "warn"} {
		if err := console.Set(level, p.logFunc(level)); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

func (p *Page) logFunc(level string) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		msg := []string{}
		fields := []slog.Attr{}

		for i, x := range call.Arguments {
			if f, ok := x.(*goja.Object); ok {
				if f.ClassName() == "Error" {
					msg = append(msg, f.String())
					continue
				}
				if f.ClassName() == "Object" {
					for _, k := range f.Keys() {
						fields = append(fields, valueToLogAttr(k, f.Get(k)))
					}
					continue
				}
				fields = append(fields, valueToLogAttr("arg"+strconv.Itoa(i), f))
				continue
			}
			msg = append(msg, x.String())
		}

		lv := slog.LevelInfo
		switch level {
		case "debug":
			lv = slog.LevelDebug
		case "error":
			lv = slog.LevelError
		case "warn":
			lv = slog.LevelWarn
		}

		text := strings.Join(msg, " ")
		p.console.add(level, text)
		p.logger.LogAttrs(context.Background(), lv, text, fields...)

		return goja.Undefined()
	}
}

func valueToLogAttr(name string, v goja.Value) slog.Attr {
	if v == nil {
		return slog.Any(name, nil)
	}
	switch x := v.Export().(type) {
	case int64:
		return slog.Int64(name, x)
	case float64:
		return slog.Float64(name, x)
	case string:
		return slog.String(name, x)
	case bool:
		return slog.Bool(name, x)
	case []any:
		return slog.Any(name, x)
	case map[string]any:
		return slog.Any(name, x)
	default:
		return slog.String(name, v.String())
	}
}
