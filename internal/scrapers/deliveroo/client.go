// Package deliveroo harvests orders from the deliveroo partner hub. The
// hub has no public API: login happens in a real browser, after which
// the hub's internal data API is called directly with the captured
// session cookies and bearer token. The restaurant UUID the data API
// keys everything on never appears in the UI, it is fished out of the
// browser's own network traffic.
package deliveroo

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"orderharvest-backend/lib/restyutil"
	"orderharvest-backend/lib/telemetry"
)

var tracer = otel.Tracer("scrapers/deliveroo")

const (
	hubURL     = "https://partner-hub.deliveroo.com"
	loginURL   = hubURL + "/login"
	ordersURL  = hubURL + "/orders"
	dataAPIURL = "https://restaurant-hub-data-api.deliveroo.net"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

// newHTTPClient builds the plain client used for every call after
// login. Cookies come straight from the browser jar; only the
// org-scoped header changes when the batch moves to the next store.
func newHTTPClient(cookies map[string]string, token, orgID string) (*resty.Client, error) {
	client := resty.New()
	client.SetBaseURL(dataAPIURL)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	apiURL, err := url.Parse(dataAPIURL)
	if err != nil {
		return nil, err
	}
	var jarCookies []*http.Cookie
	for name, value := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{Name: name, Value: value})
	}
	jar.SetCookies(apiURL, jarCookies)
	client.SetCookieJar(jar)

	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "application/json")
	client.SetHeader("referer", hubURL+"/")
	client.SetHeader("x-hub-api-caller", hubURL)
	client.SetHeader("x-roo-org-id", orgID)
	if token != "" {
		client.SetHeader("authorization", "Bearer "+token)
	}
	client.SetTimeout(time.Second * 30)

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/deliveroo/http")
	if restyInstrumentOutput != nil {
		restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	}

	return client, nil
}
