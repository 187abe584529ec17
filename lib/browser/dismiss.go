package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// DismissStrategy is one known way of closing a UI obstruction (cookie
// consent banner, promotional dialog, ...).
type DismissStrategy struct {
	Name     string
	Selector string
}

// Dismiss tries each strategy in order with a short per-attempt timeout,
// then presses Escape as a last resort. Finding nothing to dismiss is not
// an error, it just means the page was clean. Returns how many strategies
// actually clicked something.
func (s *Session) Dismiss(ctx context.Context, strategies []DismissStrategy) int {
	dismissed := 0
	for _, strat := range strategies {
		attempt, cancel := context.WithTimeout(s.ctx, time.Second*2)
		err := chromedp.Run(attempt,
			chromedp.WaitVisible(strat.Selector, chromedp.ByQuery),
			chromedp.Click(strat.Selector, chromedp.ByQuery),
		)
		cancel()
		if err != nil {
			continue
		}
		slog.DebugContext(ctx, "dismissed obstruction", "strategy", strat.Name)
		dismissed++
		// let the dialog's close animation settle before poking at the
		// next one
		attempt, cancel = context.WithTimeout(s.ctx, time.Second)
		chromedp.Run(attempt, chromedp.Sleep(time.Millisecond*500))
		cancel()
	}

	attempt, cancel := context.WithTimeout(s.ctx, time.Second*2)
	err := chromedp.Run(attempt, chromedp.KeyEvent(kb.Escape))
	cancel()
	if err != nil {
		slog.DebugContext(ctx, "escape fallback failed", "err", err)
	}

	return dismissed
}
