package nse

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/tsrajpurohit/AdvDec/internal/table"
)

const (
	mostActivePath       = "/api/live-analysis-most-active-securities?index=value"
	advancesDeclinesPath = "/api/live-analysis-advance"

	// NSE rejects requests without a browser-like user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

type API struct {
	BaseURL string // BaseURL the base url for the NSE API.
	client  http.Client
	context context.Context
	cancel  context.CancelFunc
	primed  bool
}

type APIParams struct {
	BaseURL string
}

func NewAPI(params APIParams) *API {
	api := API{
		BaseURL: params.BaseURL,
	}
	client := http.Client{
		Timeout: time.Second * 10,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 100
	transport.MaxIdleConnsPerHost = 100
	transport.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = 5 * time.Second
	client.Transport = transport

	// NSE ties API access to session cookies handed out on the landing page.
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.Jar = jar
	}

	ctx, cancel := context.WithCancel(context.Background())
	api.context = ctx
	api.cancel = cancel
	api.client = client

	return &api
}

func (a *API) Cancel() {
	a.cancel()
}

// MostActive retrieves the most active securities sorted by traded value.
func (a *API) MostActive() (interface{}, error) {
	raw, err := a.get(mostActivePath)
	if err != nil {
		return nil, err
	}

	if rec, ok := raw.(*table.Record); ok {
		if data, found := rec.Get("data"); found {
			return data, nil
		}
	}
	return raw, nil
}

// AdvancesDeclines retrieves per-index advance/decline counts. The response
// carries a meta envelope which is dropped; only the data rows are returned.
// An absent or empty data collection yields nil.
func (a *API) AdvancesDeclines() (interface{}, error) {
	raw, err := a.get(advancesDeclinesPath)
	if err != nil {
		return nil, err
	}

	rec, ok := raw.(*table.Record)
	if !ok {
		return nil, nil
	}
	rec.Delete("meta")

	data, found := rec.Get("data")
	if !found {
		return nil, nil
	}
	rows, ok := data.([]interface{})
	if !ok || len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

func (a *API) get(path string) (interface{}, error) {
	a.prime()

	url := a.BaseURL + path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	a.setHeaders(req)
	resp, err := a.client.Do(req.WithContext(a.context))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("response status code is '%d' (%s)", resp.StatusCode, resp.Status)
	}

	value, err := table.DecodeValue(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("malformed response from %s: %w", path, err)
	}
	return value, nil
}

// prime visits the landing page once to collect the session cookies the API
// endpoints require.
func (a *API) prime() {
	if a.primed {
		return
	}
	req, err := http.NewRequest(http.MethodGet, a.BaseURL+"/", nil)
	if err != nil {
		return
	}
	a.setHeaders(req)
	resp, err := a.client.Do(req.WithContext(a.context))
	if err != nil {
		return
	}
	resp.Body.Close()
	a.primed = true
}

func (a *API) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", a.BaseURL+"/")
}
