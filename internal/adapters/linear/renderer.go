// Package linear provides a synchronous, line-buffered renderer for build output.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// DefaultTailLines is how many output lines quiet mode keeps per target for failure replay.
const DefaultTailLines = 40

// Renderer implements ports.Renderer with chronological, target-prefixed lines.
//
// Spans without a known parent are targets. Spans whose parent is a known
// span are phases of that target and print under the target's name.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	quiet     bool
	tailLines int

	mu      sync.Mutex
	spans   map[string]*spanState
	buffers map[string]*bytes.Buffer
	tails   map[string][]string // target name -> recent output lines
	summary summary
}

type spanState struct {
	name      string
	target    string
	phase     bool
	startTime time.Time
}

type summary struct {
	built, cached, failed int
}

var _ ports.Renderer = (*Renderer)(nil)

// Option configures a Renderer.
type Option func(*Renderer)

// WithQuiet suppresses command output unless the target fails.
func WithQuiet(quiet bool) Option {
	return func(r *Renderer) {
		r.quiet = quiet
	}
}

// WithTailLines sets how many lines quiet mode replays for a failing target.
func WithTailLines(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.tailLines = n
		}
	}
}

// NewRenderer creates a new Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer, opts ...Option) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	r := &Renderer{
		stdout:    stdout,
		stderr:    stderr,
		output:    output.NewWithProfile(stderr, output.ColorProfileANSI),
		tailLines: DefaultTailLines,
		spans:     make(map[string]*spanState),
		buffers:   make(map[string]*bytes.Buffer),
		tails:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start is a no-op for linear renderer (synchronous).
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes remaining buffers and prints the run summary.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}

	s := r.summary
	if s.built+s.cached+s.failed > 0 {
		_, _ = fmt.Fprintf(r.stderr, "Summary: %d built, %d cached, %d failed\n", s.built, s.cached, s.failed)
	}
	return nil
}

// Wait is a no-op for linear renderer (synchronous).
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the resolved build order.
func (r *Renderer) OnPlanEmit(targets []string, _ map[string][]string, requested []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning to build %d target(s) for %s: %s\n",
		len(targets), strings.Join(requested, ", "), strings.Join(targets, " "+style.Arrow+" "))
}

// OnTaskStart prints a target start or phase transition.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &spanState{name: name, target: name, startTime: startTime}
	if parent, ok := r.spans[parentID]; ok {
		state.phase = true
		state.target = parent.target
	}
	r.spans[spanID] = state
	r.buffers[spanID] = new(bytes.Buffer)

	prefix := r.prefix(state.target)
	if state.phase {
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s\n", prefix, style.Arrow, name)
		return
	}
	r.tails[name] = nil
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnTaskLog buffers log data and prints complete lines with the target prefix.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			if len(line) > 0 {
				newBuf := new(bytes.Buffer)
				newBuf.Write(line)
				r.buffers[spanID] = newBuf
			}
			break
		}
		r.emitLineLocked(state.target, line)
	}
}

// OnTaskComplete flushes remaining output and reports the outcome of a target.
// Phase completions are silent; their failure surfaces on the enclosing target.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, cached bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)
	delete(r.spans, spanID)
	delete(r.buffers, spanID)

	if state.phase {
		return
	}

	prefix := r.prefix(state.name)
	duration := endTime.Sub(state.startTime).Round(time.Millisecond)

	switch {
	case err != nil:
		r.summary.failed++
		if r.quiet {
			for _, line := range r.tails[state.name] {
				_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix, line)
			}
		}
		symbol := r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	case cached:
		r.summary.cached++
		symbol := r.output.String(style.Cached).Faint().String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Cached version found\n", prefix, symbol)
	default:
		r.summary.built++
		symbol := r.output.String(style.Check).Foreground(r.output.Color(string(style.Green))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
	}

	delete(r.tails, state.name)
}

func (r *Renderer) prefix(target string) string {
	return r.output.String(fmt.Sprintf("[%s]", target)).Faint().String()
}

// flushBufferLocked emits any remaining partial line. Must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.emitLineLocked(state.target, buf.Bytes())
		buf.Reset()
	}
}

// emitLineLocked prints a line, or records it for replay in quiet mode. Must be called with r.mu held.
func (r *Renderer) emitLineLocked(target string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if len(line) == 0 {
		return
	}

	if r.quiet {
		tail := append(r.tails[target], string(line))
		if len(tail) > r.tailLines {
			tail = tail[len(tail)-r.tailLines:]
		}
		r.tails[target] = tail
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", target, line)
}
