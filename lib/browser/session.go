// Package browser owns the headless chrome process used to bootstrap
// authenticated sessions against merchant portals that expose no public
// API. The browser is only used for login and dynamic identifier
// discovery; every call after that goes through a plain resty client
// seeded with the captured cookies.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/browser")

type Options struct {
	// Headful disables headless mode, useful when debugging a login flow
	// that changed underneath us.
	Headful bool
	// NavigationTimeout bounds every navigation/wait action, defaults to
	// 30 seconds.
	NavigationTimeout time.Duration
}

// Session wraps one chrome process plus its recorded network traffic.
// It is owned by a single harvesting run and must be closed at run end;
// cookies and tokens captured from it are never persisted.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	netlog      *NetworkLog
	navTimeout  time.Duration
}

func NewSession(ctx context.Context, opts Options) (*Session, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		// image/stylesheet loading only slows login down
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	navTimeout := opts.NavigationTimeout
	if navTimeout == 0 {
		navTimeout = time.Second * 30
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		netlog:      newNetworkLog(),
		navTimeout:  navTimeout,
	}

	// start the browser process and begin recording outgoing requests
	// before any navigation happens, otherwise the calls fired during
	// login are lost
	s.netlog.listen(browserCtx)
	err := chromedp.Run(browserCtx, network.Enable())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

// Close tears the browser process down. Safe to call more than once and
// safe to call on a partially-constructed session.
func (s *Session) Close() {
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

// NetworkLog exposes the requests chrome has issued so far.
func (s *Session) NetworkLog() *NetworkLog {
	return s.netlog
}

// Run executes chromedp actions under the session's navigation timeout.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	ctx, span := tracer.Start(ctx, "session:Run")
	defer span.End()

	timed, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(timed, actions...)
	}()
	select {
	case err := <-done:
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "chromedp run failed")
		}
		return err
	case <-ctx.Done():
		cancel()
		<-done
		span.SetStatus(codes.Error, "caller context done")
		return ctx.Err()
	}
}

// Navigate opens the url and waits for the document to become ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Reload forces a fresh page load so the page's own API calls fire again
// and land in the network log.
func (s *Session) Reload(ctx context.Context) error {
	err := s.Run(ctx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	// give async XHRs a moment to fire
	return s.Run(ctx, chromedp.Sleep(time.Second*3))
}

// OuterHTML returns the rendered document, for the portals whose state is
// only observable in the DOM.
func (s *Session) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := s.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Cookies reads the browser cookie jar as a name -> value map.
func (s *Session) Cookies(ctx context.Context) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "session:Cookies")
	defer span.End()

	var cookies []*network.Cookie
	err := s.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cookie jar")
		return nil, err
	}

	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out, nil
}
