package deliveroo

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/lib/browser"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Options struct {
	Headful bool
}

// Scraper implements the harvest pipeline against the partner hub. One
// scraper owns one browser session and is good for one batch run.
type Scraper struct {
	creds   Credentials
	opts    Options
	window  harvest.Window
	session *browser.Session

	http         *resty.Client
	token        string
	cookies      map[string]string
	restaurantID string
}

func New(creds Credentials, window harvest.Window, opts Options) *Scraper {
	return &Scraper{
		creds:  creds,
		opts:   opts,
		window: window,
	}
}

func (s *Scraper) Name() string { return "deliveroo" }

func (s *Scraper) Close() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

var loginDismissals = []browser.DismissStrategy{
	{Name: "cookie-reject", Selector: "#onetrust-reject-all-handler"},
	{Name: "cookie-accept", Selector: "#onetrust-accept-btn-handler"},
	{Name: "close-aria", Selector: `button[aria-label="Close"]`},
	{Name: "not-now", Selector: `button[data-testid="dismiss-button"]`},
}

const (
	emailSelector    = `input[data-testid="login-email"]`
	passwordSelector = `input[data-testid="login-password"]`
	submitSelector   = `button[data-testid="login-submit"]`
)

// Login opens the hub's login form and submits the credentials. The
// cookie banner goes up before the form is interactable so it gets
// dismissed first.
func (s *Scraper) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	sess, err := browser.NewSession(ctx, browser.Options{Headful: s.opts.Headful})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "browser startup failed")
		return fmt.Errorf("start browser: %w", err)
	}
	s.session = sess

	if err := sess.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	sess.Dismiss(ctx, loginDismissals)

	err = sess.Run(ctx,
		chromedp.WaitVisible(emailSelector, chromedp.ByQuery),
		chromedp.SendKeys(emailSelector, s.creds.Email, chromedp.ByQuery),
		chromedp.SendKeys(passwordSelector, s.creds.Password, chromedp.ByQuery),
		chromedp.Click(submitSelector, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login form submission failed")
		return fmt.Errorf("submit login form: %w", err)
	}

	// the hub redirects through a couple of pages after submit; there is
	// no reliable post-login marker so wait it out, then clear whatever
	// promo dialogs landed on top
	if err := sess.Run(ctx, chromedp.Sleep(time.Second*5)); err != nil {
		return err
	}
	sess.Dismiss(ctx, loginDismissals)

	slog.InfoContext(ctx, "logged in", "platform", "deliveroo")
	return nil
}

// restaurantIDRegex matches the data API calls the orders page fires,
// capturing the restaurant UUID the rest of the API is keyed on.
var restaurantIDRegex = regexp.MustCompile(`restaurant-hub-data-api\.deliveroo\.net/api/restaurants/([a-f0-9\-]+)/`)

// ResolveStore navigates to the store's orders page and discovers its
// restaurant UUID from the network traffic the page generates, then
// rebuilds the HTTP client with the current cookie jar and the store's
// org header.
func (s *Scraper) ResolveStore(ctx context.Context, store harvest.StoreIdentity) error {
	ctx, span := tracer.Start(ctx, "ResolveStore")
	defer span.End()
	span.SetAttributes(attribute.String("store", store.Code))

	if s.session == nil {
		return fmt.Errorf("not logged in")
	}
	if store.DeliverooOrgID == "" || store.DeliverooBranchID == "" {
		return fmt.Errorf("store %q has no deliveroo org/branch pair", store.Code)
	}

	u := fmt.Sprintf("%s?orgId=%s&branchId=%s&startDate=%s&endDate=%s",
		ordersURL,
		store.DeliverooOrgID,
		store.DeliverooBranchID,
		s.window.Label(),
		s.window.EndLabel(),
	)
	if err := s.session.Navigate(ctx, u); err != nil {
		return fmt.Errorf("open orders page: %w", err)
	}

	// force fresh traffic so the match is guaranteed to belong to this
	// store, not a previously resolved one
	s.session.NetworkLog().Clear()
	if err := s.session.Reload(ctx); err != nil {
		return fmt.Errorf("reload orders page: %w", err)
	}

	restaurantID, ok := s.session.NetworkLog().FirstMatch(restaurantIDRegex)
	if !ok {
		span.SetStatus(codes.Error, "restaurant id not observed")
		return fmt.Errorf("store %q: restaurant id never appeared in network traffic", store.Code)
	}

	cookies, err := s.session.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read cookie jar: %w", err)
	}
	token := cookies["token"]
	if token == "" {
		span.SetStatus(codes.Error, "session token missing")
		return fmt.Errorf("store %q: no session token in cookie jar", store.Code)
	}

	client, err := newHTTPClient(cookies, token, store.DeliverooOrgID)
	if err != nil {
		return err
	}

	s.cookies = cookies
	s.token = token
	s.restaurantID = restaurantID
	s.http = client

	slog.InfoContext(ctx, "resolved store",
		"platform", "deliveroo",
		"store", store.Code,
		"restaurant_id", restaurantID,
	)
	return nil
}
