package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

const (
	barWidth   = 24
	labelWidth = 32
)

// Progress renders a single-line progress bar for one sheet. Safe for concurrent use.
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	title string
	total int
	done  int
}

func NewProgress(w io.Writer, title string, total int) *Progress {
	return &Progress{w: w, title: title, total: total}
}

// Step records one finished row and redraws the line with label (usually the place name).
func (p *Progress) Step(label string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	fmt.Fprint(p.w, "\r"+p.line(label))
}

// Finish terminates the progress line.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
}

func (p *Progress) line(label string) string {
	filled := 0
	if p.total > 0 {
		filled = p.done * barWidth / p.total
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
	return fmt.Sprintf("%s %d/%d [%s] %s", p.title, p.done, p.total, bar, fitLabel(label))
}

// fitLabel pads or truncates to a fixed display width; wide runes count double.
func fitLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) > labelWidth {
		s = runewidth.Truncate(s, labelWidth, "…")
	}
	return runewidth.FillRight(s, labelWidth)
}
