package risc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Output receives the human-readable progress lines a Client emits in verbose
// mode, and the diagnostics of snapshot decryption.
type Output interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// ConsoleOutput writes bold ANSI-colored lines: white for info, green for
// success, yellow for warnings and red for errors.
type ConsoleOutput struct {
	mu      sync.Mutex
	w       io.Writer
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
}

// NewConsoleOutput returns a ConsoleOutput writing to w (stdout when nil).
// Colors are always emitted, whether or not w is a terminal.
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)

	base := r.NewStyle().Bold(true)
	return &ConsoleOutput{
		w:       w,
		info:    base.Foreground(lipgloss.Color("7")),
		success: base.Foreground(lipgloss.Color("2")),
		warn:    base.Foreground(lipgloss.Color("3")),
		err:     base.Foreground(lipgloss.Color("1")),
	}
}

func (o *ConsoleOutput) Info(msg string)    { o.print(o.info, msg) }
func (o *ConsoleOutput) Success(msg string) { o.print(o.success, msg) }
func (o *ConsoleOutput) Warn(msg string)    { o.print(o.warn, msg) }
func (o *ConsoleOutput) Error(msg string)   { o.print(o.err, msg) }

func (o *ConsoleOutput) print(style lipgloss.Style, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, style.Render(msg))
}

// SlogOutput routes output lines into a structured logger.
type SlogOutput struct {
	Logger *slog.Logger
}

func (o SlogOutput) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o SlogOutput) Info(msg string)    { o.logger().Info(msg) }
func (o SlogOutput) Success(msg string) { o.logger().Info(msg, "outcome", "success") }
func (o SlogOutput) Warn(msg string)    { o.logger().Warn(msg) }
func (o SlogOutput) Error(msg string)   { o.logger().Error(msg) }

// NopOutput discards everything.
type NopOutput struct{}

func (NopOutput) Info(string)    {}
func (NopOutput) Success(string) {}
func (NopOutput) Warn(string)    {}
func (NopOutput) Error(string)   {}
