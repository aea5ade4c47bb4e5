package output

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress renders a bar of attempted candidates. It is also an io.Writer:
// lines written to it are printed above the bar.
type Progress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// NewProgress starts a bar for total candidates, drawn on out.
func NewProgress(total int, out io.Writer) *Progress {
	p := mpb.New(mpb.WithOutput(out), mpb.WithRefreshRate(100*time.Millisecond))
	prompt := "attempts:"
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(prompt, decor.WC{W: len(prompt) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Name(" "),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 4}),
		),
	)
	return &Progress{p: p, bar: bar}
}

// Increment records one finished attempt.
func (p *Progress) Increment() {
	p.bar.Increment()
}

func (p *Progress) Write(b []byte) (int, error) {
	return p.p.Write(b)
}

// Stop ends the bar at its current count and waits for the final render.
// The count is short of the total when a success stopped the run early, so
// the bar is aborted rather than completed; it stays on screen.
func (p *Progress) Stop() {
	p.bar.Abort(false)
	p.p.Wait()
}
