package catalog

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/jxwalker/ggmod/internal/config"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/metrics"
	"github.com/jxwalker/ggmod/internal/state"
)

// Version is reported in the default User-Agent; set by the binary at startup.
var Version = "dev"

// maxBodyBytes bounds JSON responses; archives are streamed separately.
const maxBodyBytes = 32 << 20

// Client talks to the mod catalog and fetches mod archives.
type Client struct {
	cfg     *config.Config
	log     *logging.Logger
	http    *http.Client
	st      *state.DB
	metrics *metrics.Manager
	cache   *categoryCache
	baseURL string
}

// New builds a client. st and m may be nil: fetches are then not recorded.
func New(cfg *config.Config, log *logging.Logger, st *state.DB, m *metrics.Manager) *Client {
	base := strings.TrimRight(cfg.Catalog.BaseURL, "/")
	if base == "" {
		base = config.DefaultBaseURL
	}
	return &Client{
		cfg:     cfg,
		log:     log,
		http:    newHTTPClient(cfg),
		st:      st,
		metrics: m,
		cache:   newCategoryCache(cfg),
		baseURL: base,
	}
}

// Search fetches one page of results for q.
func (c *Client) Search(ctx context.Context, q Query, page int) ([]SearchEntry, error) {
	c.metrics.IncSearches()
	var out []SearchEntry
	if err := c.getJSON(ctx, "search", q.Path(page), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []SearchEntry{}
	}
	c.log.Debugf("search %s/%s page %d: %d results", q.Type, q.Sort, page, len(out))
	return out, nil
}

// ModPage fetches the detail page of mod id, including its files.
func (c *Client) ModPage(ctx context.Context, id int) (*ModPage, error) {
	var mp ModPage
	if err := c.getJSON(ctx, "mod page", modPagePath(id), &mp); err != nil {
		return nil, err
	}
	if mp.Row == 0 {
		mp.Row = id
	}
	return &mp, nil
}

// Categories lists the subcategories of rootID, with NoCategory first.
// Listings are cached on disk for catalog.cache_ttl_hours.
func (c *Client) Categories(ctx context.Context, rootID int) ([]Category, error) {
	key := strconv.Itoa(rootID)
	cats, ok, err := c.cache.get(key)
	if err != nil {
		c.log.Warnf("category cache unreadable, refetching: %v", err)
	}
	if !ok {
		if err := c.getJSON(ctx, "categories", categoriesPath(rootID), &cats); err != nil {
			return nil, err
		}
		if err := c.cache.put(key, cats); err != nil {
			c.log.Warnf("category cache write failed: %v", err)
		}
	}
	out := make([]Category, 0, len(cats)+1)
	out = append(out, NoCategory)
	return append(out, cats...), nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, v any) error {
	u := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ggerr.E(op, ggerr.KindInvalid, err)
	}
	req.Header.Set("User-Agent", userAgent(c.cfg))
	req.Header.Set("Accept", "application/json")
	c.log.Debugf("GET %s", logging.SanitizeURL(u))
	resp, err := c.http.Do(req)
	if err != nil {
		return ggerr.E(op, ggerr.KindNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ggerr.Errorf(op, ggerr.KindNetwork, "unexpected status: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ggerr.E(op, ggerr.KindNetwork, err)
	}
	if err := json.Unmarshal(Humanize(body), v); err != nil {
		return ggerr.E(op, ggerr.KindParse, err)
	}
	return nil
}

func newHTTPClient(cfg *config.Config) *http.Client {
	timeout := time.Duration(cfg.Network.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	client := &http.Client{Transport: tr, Timeout: timeout}
	// File downloads redirect to mirrors; keep the UA across hops.
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		if len(via) > 0 {
			if ua := via[len(via)-1].Header.Get("User-Agent"); ua != "" {
				req.Header.Set("User-Agent", ua)
			}
		}
		return nil
	}
	return client
}

// userAgent returns the configured User-Agent, or
// "ggmod/<version> (<goos>/<goarch>)" when not set.
func userAgent(cfg *config.Config) string {
	if cfg != nil && cfg.Network.UserAgent != "" {
		return cfg.Network.UserAgent
	}
	return fmt.Sprintf("ggmod/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
