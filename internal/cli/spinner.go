package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// renderSpinner animates a status line while a slow export renders.
type renderSpinner struct {
	w     io.Writer
	label string
	style spinner.Spinner

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// startSpinner draws label on w until stop is called or ctx ends.
func startSpinner(ctx context.Context, w io.Writer, label string) *renderSpinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &renderSpinner{
		w:      w,
		label:  label,
		style:  spinner.MiniDot,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *renderSpinner) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.style.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := s.style.Frames[i%len(s.style.Frames)]
		fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
		select {
		case <-ctx.Done():
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
			return
		case <-ticker.C:
		}
	}
}

// stop halts the animation and clears the line. Safe to call more than once.
func (s *renderSpinner) stop() {
	s.once.Do(s.cancel)
	<-s.done
}
