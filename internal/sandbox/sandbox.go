// Package sandbox runs built userscripts in an embedded JavaScript engine
// with a minimal browser environment, so their behaviour on a given host
// can be inspected without a browser.
package sandbox

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

//go:embed browser.js
var browserSource string

var browserProgram = goja.MustCompile("browser.js", browserSource, true)

// ErrClosed is returned when using a page after Close
var ErrClosed = errors.New("sandbox page is closed")

// Options configure a simulated page load
type Options struct {
	Host      string
	Storage   map[string]string // initial localStorage items
	BodyReady bool              // body exists before the first script runs
	Logger    *slog.Logger
}

// Event is a runtime notification dispatched on the document
type Event struct {
	Type   string          `json:"type"`
	Detail json.RawMessage `json:"detail"`
}

// Report summarizes a page after scripts ran
type Report struct {
	Host      string            `json:"host"`
	Executed  []string          `json:"executed"`
	Failed    []string          `json:"failed"`
	MenuState string            `json:"menuState"`
	MenuTab   string            `json:"menuTab,omitempty"`
	MenuHosts int               `json:"menuHosts"`
	Reloads   int               `json:"reloads"`
	Storage   map[string]string `json:"storage"`
	Events    []Event           `json:"events"`
	Logs      []LogEntry        `json:"logs"`
}

// Page is one simulated page load backed by a goja event loop
type Page struct {
	opts    Options
	logger  *slog.Logger
	loop    *eventloop.EventLoop
	console consoleLog

	mu     sync.Mutex
	events []Event
	closed bool
}

// NewPage starts an event loop with the browser environment installed
func NewPage(opts Options) (*Page, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Page{
		opts:   opts,
		logger: logger.With(slog.String("host", opts.Host)),
		loop:   eventloop.NewEventLoop(eventloop.EnableConsole(false)),
	}
	p.loop.Start()

	if err := p.do(p.install); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to install browser environment: %w", err)
	}
	return p, nil
}

func (p *Page) install(vm *goja.Runtime) error {
	if err := p.installConsole(vm); err != nil {
		return err
	}

	storage := p.opts.Storage
	if storage == nil {
		storage = map[string]string{}
	}
	seed, err := json.Marshal(storage)
	if err != nil {
		return err
	}

	host := vm.NewObject()
	for k, v := range map[string]any{
		"host":      strings.ToLower(p.opts.Host),
		"bodyReady": p.opts.BodyReady,
		"storage":   string(seed),
		"record":    p.record,
	} {
		if err := host.Set(k, v); err != nil {
			return err
		}
	}
	if err := vm.Set("__sandbox", host); err != nil {
		return err
	}

	_, err = vm.RunProgram(browserProgram)
	return err
}

func (p *Page) record(typ, detail string) {
	p.mu.Lock()
	p.events = append(p.events, Event{Type: typ, Detail: json.RawMessage(detail)})
	p.mu.Unlock()
}

// do runs fn on the loop goroutine and waits for it
func (p *Page) do(fn func(vm *goja.Runtime) error) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	errc := make(chan error, 1)
	p.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("sandbox panic: %v", r)
			}
		}()
		errc <- fn(vm)
	})
	return <-errc
}

// Exec runs a script in the page
func (p *Page) Exec(name, src string) error {
	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", name, err)
	}
	return p.do(func(vm *goja.Runtime) error {
		_, err := vm.RunProgram(prg)
		return err
	})
}

// Eval evaluates an expression and returns its exported value
func (p *Page) Eval(expr string) (any, error) {
	var out any
	err := p.do(func(vm *goja.Runtime) error {
		v, err := vm.RunString(expr)
		if err != nil {
			return err
		}
		out = v.Export()
		return nil
	})
	return out, err
}

// Ready creates the body and fires DOMContentLoaded and load
func (p *Page) Ready() error {
	return p.call("ready")
}

func (p *Page) call(name string) error {
	return p.do(func(vm *goja.Runtime) error {
		fn, ok := goja.AssertFunction(vm.Get("__sandbox").ToObject(vm).Get(name))
		if !ok {
			return fmt.Errorf("sandbox helper %s is missing", name)
		}
		_, err := fn(goja.Undefined())
		return err
	})
}

// Settle lets timers and promise jobs run for d
func (p *Page) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Report collects what happened on the page so far
func (p *Page) Report() (*Report, error) {
	var snapshot struct {
		MenuHosts int               `json:"menuHosts"`
		Reloads   int               `json:"reloads"`
		Storage   map[string]string `json:"storage"`
	}
	err := p.do(func(vm *goja.Runtime) error {
		fn, ok := goja.AssertFunction(vm.Get("__sandbox").ToObject(vm).Get("snapshot"))
		if !ok {
			return fmt.Errorf("sandbox helper snapshot is missing")
		}
		v, err := fn(goja.Undefined())
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v.String()), &snapshot)
	})
	if err != nil {
		return nil, err
	}

	r := &Report{
		Host:      p.opts.Host,
		Executed:  []string{},
		Failed:    []string{},
		MenuState: "uninjected",
		MenuHosts: snapshot.MenuHosts,
		Reloads:   snapshot.Reloads,
		Storage:   snapshot.Storage,
		Logs:      p.console.snapshot(),
	}

	p.mu.Lock()
	r.Events = append([]Event(nil), p.events...)
	p.mu.Unlock()

	for _, ev := range r.Events {
		var detail struct {
			ID    string `json:"id"`
			State string `json:"state"`
			Tab   string `json:"tab"`
		}
		_ = json.Unmarshal(ev.Detail, &detail)

		switch ev.Type {
		case "boredom:executed":
			r.Executed = append(r.Executed, detail.ID)
		case "boredom:failed":
			r.Failed = append(r.Failed, detail.ID)
		case "boredom:menu":
			r.MenuState = detail.State
			r.MenuTab = detail.Tab
		}
	}
	return r, nil
}

// Close stops the event loop. Pending timers are dropped.
func (p *Page) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.loop.Stop()
}

// Simulate loads bundle on a page for opts.Host, fires the load events and
// reports after settle.
func Simulate(ctx context.Context, bundle string, opts Options, settle time.Duration) (*Report, error) {
	page, err := NewPage(opts)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Exec("bundle.user.js", bundle); err != nil {
		return nil, fmt.Errorf("bundle threw: %w", err)
	}
	if !opts.BodyReady {
		if err := page.Ready(); err != nil {
			return nil, fmt.Errorf("load handlers threw: %w", err)
		}
	}
	if err := page.Settle(ctx, settle); err != nil {
		return nil, err
	}

	return page.Report()
}
