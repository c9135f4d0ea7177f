package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// safeWriter serializes writes from the animation goroutine and log output.
type safeWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSafeWriter(w io.Writer) *safeWriter {
	return &safeWriter{w: w}
}

func (sw *safeWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// flushWriter syncs w when it is a file so escape sequences reach the terminal.
func flushWriter(w io.Writer) {
	type syncer interface {
		Sync() error
	}
	if s, ok := w.(syncer); ok {
		_ = s.Sync()
	}
}

//nolint:gochecknoglobals // animation frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerInterval is the animation tick.
const SpinnerInterval = 100 * time.Millisecond

// ElapsedTimeThreshold is when the spinner starts showing elapsed time.
// Release builds routinely run for minutes.
const ElapsedTimeThreshold = 10 * time.Second

const clearLine = "\r\033[K"

//nolint:gochecknoglobals // one terminal, one active spinner
var spinnerManager = &SpinnerManager{}

// SpinnerManager tracks the active spinner so log writes can clear its line first.
type SpinnerManager struct {
	mu     sync.Mutex
	active *TerminalSpinner
}

// SetActive registers s as the active spinner.
func (m *SpinnerManager) SetActive(s *TerminalSpinner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = s
}

// ClearActive forgets the active spinner.
func (m *SpinnerManager) ClearActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
}

// GetActive returns the active spinner or nil.
func (m *SpinnerManager) GetActive() *TerminalSpinner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// TerminalSpinner animates a status line.
type TerminalSpinner struct {
	w       *safeWriter
	styles  *OutputStyles
	message string
	started time.Time
	done    chan struct{}
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewTerminalSpinner creates a spinner writing to w.
func NewTerminalSpinner(w io.Writer) *TerminalSpinner {
	return &TerminalSpinner{
		w:      newSafeWriter(w),
		styles: NewOutputStyles(),
	}
}

// Writer returns the serialized writer shared with the animation.
func (s *TerminalSpinner) Writer() io.Writer {
	return s.w
}

// Start begins the animation. Calling Start on a running spinner only
// replaces the message and restarts the elapsed timer.
func (s *TerminalSpinner) Start(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	s.started = time.Now()

	if s.running {
		return
	}

	s.running = true
	s.stopped = false
	s.done = make(chan struct{})

	spinnerManager.SetActive(s)

	done := s.done
	go s.animate(ctx, done)
}

// UpdateMessage replaces the message and restarts the elapsed timer.
func (s *TerminalSpinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.message == message {
		return
	}
	s.message = message
	s.started = time.Now()
}

// Message returns the current message.
func (s *TerminalSpinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop ends the animation and clears the line.
func (s *TerminalSpinner) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.running = false
	done := s.done
	s.mu.Unlock()

	close(done)

	// Clear before deregistering so a concurrent log write lands on a clean line.
	_, _ = fmt.Fprint(s.w, clearLine)
	flushWriter(s.w)

	spinnerManager.ClearActive()
}

func (s *TerminalSpinner) animate(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			s.mu.Lock()
			wasRunning := s.running && !s.stopped
			if wasRunning {
				s.running = false
				s.stopped = true
			}
			s.mu.Unlock()

			if wasRunning {
				_, _ = fmt.Fprint(s.w, clearLine)
				flushWriter(s.w)
				spinnerManager.ClearActive()
			}
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.running {
				s.mu.Unlock()
				return
			}
			msg := s.message
			if elapsed := time.Since(s.started); elapsed > ElapsedTimeThreshold {
				msg = fmt.Sprintf("%s (%s)", msg, FormatElapsed(elapsed))
			}
			s.mu.Unlock()

			// frame + space + margin
			if maxWidth := getTerminalWidth() - 3; maxWidth > 0 {
				msg = TruncateToWidth(msg, maxWidth)
			}
			icon := s.styles.Info.Render(spinnerFrames[frame%len(spinnerFrames)])
			_, _ = fmt.Fprintf(s.w, "%s%s %s", clearLine, icon, msg)
			flushWriter(s.w)

			frame++
		}
	}
}

// getTerminalWidth returns the width of stderr, or 80.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd())) //nolint:gosec // fd fits in int
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// SpinnerAdapter satisfies Spinner with a TerminalSpinner.
type SpinnerAdapter struct {
	spinner *TerminalSpinner
	cancel  context.CancelFunc
}

// NewSpinnerAdapter starts an animated spinner on w.
func NewSpinnerAdapter(ctx context.Context, w io.Writer, msg string) *SpinnerAdapter {
	ctx, cancel := context.WithCancel(ctx)
	s := NewTerminalSpinner(w)
	s.Start(ctx, msg)
	return &SpinnerAdapter{spinner: s, cancel: cancel}
}

// Update changes the message.
func (a *SpinnerAdapter) Update(msg string) {
	a.spinner.UpdateMessage(msg)
}

// Stop ends the animation.
func (a *SpinnerAdapter) Stop() {
	a.cancel()
	a.spinner.Stop()
}

// lineSpinner prints each distinct message once, for redirected output and CI logs.
type lineSpinner struct {
	mu     sync.Mutex
	w      io.Writer
	styles *OutputStyles
	last   string
}

func newLineSpinner(w io.Writer, styles *OutputStyles, msg string) *lineSpinner {
	s := &lineSpinner{w: w, styles: styles}
	s.Update(msg)
	return s
}

func (s *lineSpinner) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" || msg == s.last {
		return
	}
	s.last = msg
	_, _ = fmt.Fprintln(s.w, s.styles.Dim.Render("… "+msg))
}

func (s *lineSpinner) Stop() {}

// NoopSpinner prints nothing.
type NoopSpinner struct{}

// Update does nothing.
func (*NoopSpinner) Update(_ string) {}

// Stop does nothing.
func (*NoopSpinner) Stop() {}

// SpinnerAwareWriter clears the active spinner's line before each write so
// console log lines do not share a line with the animation.
type SpinnerAwareWriter struct {
	w io.Writer
}

// NewSpinnerAwareWriter wraps w.
func NewSpinnerAwareWriter(w io.Writer) *SpinnerAwareWriter {
	return &SpinnerAwareWriter{w: w}
}

// Write implements io.Writer.
func (sw *SpinnerAwareWriter) Write(p []byte) (int, error) {
	if active := spinnerManager.GetActive(); active != nil {
		_, _ = fmt.Fprint(active.Writer(), clearLine)
	}
	return sw.w.Write(p)
}
