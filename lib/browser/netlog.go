package browser

import (
	"context"
	"regexp"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// NetworkLog accumulates the urls of every request the browser sends.
// This is how dynamic entity identifiers are discovered: they only ever
// appear as path segments of the page's own API calls, never in the DOM.
type NetworkLog struct {
	mu   sync.Mutex
	urls []string
}

func newNetworkLog() *NetworkLog {
	return &NetworkLog{}
}

func (l *NetworkLog) listen(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev any) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		l.mu.Lock()
		l.urls = append(l.urls, req.Request.URL)
		l.mu.Unlock()
	})
}

// Clear drops everything recorded so far. Called right before a forced
// reload so matches are guaranteed to come from fresh traffic.
func (l *NetworkLog) Clear() {
	l.mu.Lock()
	l.urls = nil
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded request urls.
func (l *NetworkLog) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.urls))
	copy(out, l.urls)
	return out
}

// FirstMatch scans the recorded urls for the first one matching re and
// returns re's first capture group. Later duplicates are ignored, the
// portals repeat the same identifier on every call.
func (l *NetworkLog) FirstMatch(re *regexp.Regexp) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.urls {
		groups := re.FindStringSubmatch(u)
		if len(groups) >= 2 {
			return groups[1], true
		}
	}
	return "", false
}
