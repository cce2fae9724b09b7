package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/processor"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ processor.Callback = (*Noop)(nil)
	_ processor.Callback = (*Printer)(nil)
	_ processor.Callback = (*PackageLogger)(nil)
	_ processor.Callback = (*Fanout)(nil)
	_ processor.Callback = (*Scratchpad)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []processor.Callback
}

func NewFanout(callbacks ...processor.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback processor.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnQueryStart(ctx context.Context, query string) {
	for _, callback := range l.callbacks {
		callback.OnQueryStart(ctx, query)
	}
}

func (l *Fanout) OnQueryEnd(ctx context.Context, query, result string) {
	for _, callback := range l.callbacks {
		callback.OnQueryEnd(ctx, query, result)
	}
}

func (l *Fanout) OnQueryError(ctx context.Context, query string, err error) {
	for _, callback := range l.callbacks {
		callback.OnQueryError(ctx, query, err)
	}
}

func (l *Fanout) OnLLMCallStart(ctx context.Context, llm llms.Model, messages []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnLLMCallStart(ctx, llm, messages)
	}
}

func (l *Fanout) OnLLMCallEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse) {
	for _, callback := range l.callbacks {
		callback.OnLLMCallEnd(ctx, llm, resp)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, tool, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool, input, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, input, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, input, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnQueryStart(ctx context.Context, query string)                 {}
func (l *Noop) OnQueryEnd(ctx context.Context, query, result string)           {}
func (l *Noop) OnQueryError(ctx context.Context, query string, err error)      {}
func (l *Noop) OnToolStart(ctx context.Context, tool, input string)            {}
func (l *Noop) OnToolEnd(ctx context.Context, tool, input, output string)      {}
func (l *Noop) OnToolError(ctx context.Context, tool, input string, err error) {}
func (l *Noop) OnLLMCallStart(ctx context.Context, llm llms.Model, messages []llms.Message) {
}
func (l *Noop) OnLLMCallEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse) {
}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnQueryStart(ctx context.Context, query string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Query Start: %s\n", query)
}

func (l *Printer) OnQueryEnd(ctx context.Context, query, result string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Query End: %s\n", query)
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Result: %s\n", result)
	}
}

func (l *Printer) OnQueryError(ctx context.Context, query string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Query Error: %s: %s\n", query, err.Error())
}

func (l *Printer) OnLLMCallStart(ctx context.Context, llm llms.Model, messages []llms.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "LLM Call: %s model, %d messages\n", llm.GetName(), len(messages))
}

func (l *Printer) OnLLMCallEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse) {
	l.lock.Lock()
	defer l.lock.Unlock()
	var choices int
	if resp != nil {
		choices = len(resp.Choices)
	}
	fmt.Fprintf(l.Out, "LLM Call End: %s model, %d choices\n", llm.GetName(), choices)
}

func (l *Printer) OnToolStart(ctx context.Context, tool, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool)
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnToolEnd(ctx context.Context, tool, input, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool)
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool, err.Error())
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnQueryStart(ctx context.Context, query string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "query_start",
		"query", query,
	)
}

func (l *PackageLogger) OnQueryEnd(ctx context.Context, query, result string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "query_end",
		"result", result,
	)
}

func (l *PackageLogger) OnQueryError(ctx context.Context, query string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "query_error",
		"query", query,
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnLLMCallStart(ctx context.Context, llm llms.Model, messages []llms.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "llm_call_start",
		"model", llm.GetName(),
		"messages", len(messages),
	)
}

func (l *PackageLogger) OnLLMCallEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse) {
	var choices int
	if resp != nil {
		choices = len(resp.Choices)
	}
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "llm_call_end",
		"model", llm.GetName(),
		"choices", choices,
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool,
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool, input, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool,
		"output", output,
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool,
		"err", err.Error(),
	)
}
