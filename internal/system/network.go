package system

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	ggerr "github.com/jxwalker/ggmod/internal/errors"
)

// CatalogAddr splits a catalog base URL into host and port, filling the
// port from the scheme when absent.
func CatalogAddr(baseURL string) (string, string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "", "", ggerr.ConfigError("catalog.base_url", fmt.Sprintf("%q is not an absolute URL", baseURL))
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return u.Hostname(), port, nil
}

// CheckCatalogReachable resolves the catalog host and opens a TCP connection
// to it.
func CheckCatalogReachable(ctx context.Context, baseURL string) error {
	host, port, err := CatalogAddr(baseURL)
	if err != nil {
		return err
	}
	resolver := &net.Resolver{}
	if _, err := resolver.LookupHost(ctx, host); err != nil {
		return ggerr.NewFriendlyError(
			fmt.Sprintf("Cannot resolve host: %s", host),
			"Check that catalog.base_url is correct and your DNS is working",
		).WithDetails(err)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return ggerr.NewFriendlyError(
			fmt.Sprintf("Cannot connect to host: %s", host),
			fmt.Sprintf("Host is unreachable:\n"+
				"1. Check internet connection\n"+
				"2. Verify host is not blocked by firewall\n"+
				"3. Try: curl -I %s", baseURL),
		).WithDetails(err)
	}
	conn.Close()
	return nil
}

// ProxySettings returns the proxy environment that applies to catalog
// requests.
func ProxySettings() map[string]string {
	proxies := make(map[string]string)
	for _, k := range []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"} {
		if v := os.Getenv(k); v != "" {
			proxies[k] = v
		}
	}
	req, _ := http.NewRequest(http.MethodGet, "https://gamebanana.com", nil)
	if p, _ := http.ProxyFromEnvironment(req); p != nil {
		if _, ok := proxies["HTTPS_PROXY"]; !ok {
			proxies["HTTPS_PROXY"] = p.String()
		}
	}
	return proxies
}
