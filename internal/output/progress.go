package output

import (
	"fmt"
	"sync"
	"time"
)

// Progress represents an active progress indicator
type Progress struct {
	printer      *Printer
	message      string
	startTime    time.Time
	done         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	// mu guards the fields below and serializes writes to the terminal
	mu           sync.Mutex
	spinnerIndex int
	stopped      bool
}

// Spinner characters for animation
var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StartProgress starts a spinner on the error stream so stdout stays clean for results
func (p *Printer) StartProgress(message string) *Progress {
	progress := &Progress{
		printer:   p,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	progress.render()
	progress.wg.Add(1)
	go progress.animate()
	return progress
}

// UpdateMessage updates the progress message. It does nothing once the
// indicator is stopped.
func (p *Progress) UpdateMessage(message string) {
	p.mu.Lock()
	p.message = message
	p.mu.Unlock()
	p.render()
}

// Stop stops the progress indicator and clears the line. It is safe to call more than once.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		p.mu.Lock()
		defer p.mu.Unlock()
		p.stopped = true
		_, _ = fmt.Fprint(p.printer.err, "\r\033[K")
	})
}

func (p *Progress) animate() {
	defer p.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.spinnerIndex++
			p.mu.Unlock()
			p.render()
		}
	}
}

func (p *Progress) render() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	message := p.message
	spinner := spinnerChars[p.spinnerIndex%len(spinnerChars)]

	elapsed := p.printer.detail.Sprintf("[%s]", formatDuration(time.Since(p.startTime)))
	line := p.printer.info.Sprintf("%s %s", spinner, message)
	_, _ = fmt.Fprintf(p.printer.err, "\r%s %s\033[K", line, elapsed)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
