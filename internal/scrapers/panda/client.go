// Package panda harvests orders from the hungrypanda merchant portal.
// The portal is a browser-only SPA: login and store selection happen in
// headless chrome, then the portal's gateway API is called directly
// with the captured session cookies. The gateway id segment those calls
// are routed through is discovered from the browser's network traffic.
package panda

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"orderharvest-backend/lib/restyutil"
	"orderharvest-backend/lib/telemetry"
)

var tracer = otel.Tracer("scrapers/panda")

const (
	portalURL      = "https://merchant-uk.hungrypanda.co"
	loginPageURL   = portalURL + "/master/login"
	storeListURL   = portalURL + "/master/branchStore/storeList"
	orderManageURL = portalURL + "/order/ordermanage"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

func newHTTPClient(cookies map[string]string, merchantID string) (*resty.Client, error) {
	client := resty.New()
	client.SetBaseURL(portalURL)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(portalURL)
	if err != nil {
		return nil, err
	}
	var jarCookies []*http.Cookie
	for name, value := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{Name: name, Value: value})
	}
	jar.SetCookies(base, jarCookies)
	client.SetCookieJar(jar)

	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "application/json")
	client.SetHeader("referer", orderManageURL)
	client.SetHeader("merchant-id", merchantID)
	client.SetTimeout(time.Second * 30)

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/panda/http")
	if restyInstrumentOutput != nil {
		restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	}

	return client, nil
}
