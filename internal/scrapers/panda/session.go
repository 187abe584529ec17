package panda

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/lib/browser"
	"orderharvest-backend/lib/htmlutil"
)

type Credentials struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type Options struct {
	Headful bool
}

// Scraper implements the harvest pipeline against the merchant portal.
type Scraper struct {
	creds   Credentials
	opts    Options
	session *browser.Session

	http      *resty.Client
	gatewayID string
}

func New(creds Credentials, opts Options) *Scraper {
	return &Scraper{
		creds: creds,
		opts:  opts,
	}
}

func (s *Scraper) Name() string { return "panda" }

func (s *Scraper) Close() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

const (
	phoneSelector    = "#phone"
	passwordSelector = "#password"
	// the login button carries no id or testid, only its label
	loginButtonXPath = `//button[span[text()="Login"]]`
	// "Branch Management" showing up is the only reliable login-success
	// signal the portal gives
	loggedInXPath = `//div[contains(text(),"Branch Management")]`
)

// Login submits the phone/password form and waits for the master
// dashboard to render.
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

	if err := sess.Navigate(ctx, loginPageURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	err = sess.Run(ctx,
		chromedp.WaitVisible(phoneSelector, chromedp.ByQuery),
		chromedp.SendKeys(phoneSelector, s.creds.Phone, chromedp.ByQuery),
		chromedp.SendKeys(passwordSelector, s.creds.Password, chromedp.ByQuery),
		chromedp.Click(loginButtonXPath, chromedp.BySearch),
		chromedp.WaitVisible(loggedInXPath, chromedp.BySearch),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return fmt.Errorf("submit login form: %w", err)
	}

	slog.InfoContext(ctx, "logged in", "platform", "panda")
	return nil
}

// gatewayIDRegex matches the portal's own gateway API traffic,
// capturing the id segment every order call must be routed through.
var gatewayIDRegex = regexp.MustCompile(`merchant-uk\.hungrypanda\.co/gateway/([a-f0-9\-]+)/`)

// ResolveStore opens the branch list, verifies the merchant row is
// actually present for this account, enters the store's order
// management page and discovers the gateway id from the traffic the
// page fires.
func (s *Scraper) ResolveStore(ctx context.Context, store harvest.StoreIdentity) error {
	ctx, span := tracer.Start(ctx, "ResolveStore")
	defer span.End()
	span.SetAttributes(attribute.String("store", store.Code))

	if s.session == nil {
		return fmt.Errorf("not logged in")
	}
	if store.PandaMerchantID == "" {
		return fmt.Errorf("store %q has no panda merchant id", store.Code)
	}

	if err := s.session.Navigate(ctx, storeListURL); err != nil {
		return fmt.Errorf("open store list: %w", err)
	}

	html, err := s.session.OuterHTML(ctx)
	if err != nil {
		return fmt.Errorf("read store list: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse store list: %w", err)
	}
	row := doc.Find(fmt.Sprintf(`tr[data-row-key="%s"]`, store.PandaMerchantID))
	if row.Length() == 0 {
		span.SetStatus(codes.Error, "merchant row missing")
		return fmt.Errorf("store %q: merchant %s not listed for this account", store.Code, store.PandaMerchantID)
	}
	if len(row.Nodes) > 0 && store.Name != "" {
		rowText := htmlutil.CleanText(htmlutil.GetText(row.Nodes[0]))
		if !strings.Contains(rowText, store.Name) {
			// the merchant id matched a row that does not display the
			// configured name, almost always a stale roster entry
			slog.WarnContext(ctx, "store row name mismatch",
				"store", store.Code,
				"expected", store.Name,
				"row", rowText,
			)
		}
	}

	// entering the branch row's portal is what scopes the session
	// cookies to this store
	err = s.session.Run(ctx,
		chromedp.Click(fmt.Sprintf(`//tr[@data-row-key="%s"]//button`, store.PandaMerchantID), chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("enter store %q: %w", store.Code, err)
	}

	if err := s.session.Navigate(ctx, orderManageURL); err != nil {
		return fmt.Errorf("open order management: %w", err)
	}

	s.session.NetworkLog().Clear()
	if err := s.session.Reload(ctx); err != nil {
		return fmt.Errorf("reload order management: %w", err)
	}

	gatewayID, ok := s.session.NetworkLog().FirstMatch(gatewayIDRegex)
	if !ok {
		span.SetStatus(codes.Error, "gateway id not observed")
		return fmt.Errorf("store %q: gateway id never appeared in network traffic", store.Code)
	}

	cookies, err := s.session.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read cookie jar: %w", err)
	}

	client, err := newHTTPClient(cookies, store.PandaMerchantID)
	if err != nil {
		return err
	}

	s.gatewayID = gatewayID
	s.http = client

	slog.InfoContext(ctx, "resolved store",
		"platform", "panda",
		"store", store.Code,
		"gateway_id", gatewayID,
	)
	return nil
}
