package edge

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/server"
)

// haPrefix is stripped before requests reach Home Assistant.
const haPrefix = "/ha"

// NewProxy reverse-proxies to origin. Responses for paths under prefix get
// Cache-Control: no-store.
func NewProxy(origin *url.URL, prefix string, logger *zap.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			if resp.Request != nil && strings.HasPrefix(resp.Request.URL.Path, strings.TrimRight(origin.Path, "/")+prefix) {
				resp.Header.Set("Cache-Control", "no-store")
			}
			return nil
		},
		ErrorHandler: errorHandler(logger, origin),
	}
}

// NewHomeAssistantProxy forwards /ha/... to base with the /ha prefix removed
// and the access token injected.
func NewHomeAssistantProxy(base *url.URL, token string, logger *zap.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, haPrefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(base)
			pr.Out.Header.Del("Cookie")
			if token != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+token)
			}
		},
		ErrorHandler: errorHandler(logger, base),
	}
}

// errorHandler logs via zap instead of writing to stderr.
func errorHandler(logger *zap.Logger, target *url.URL) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("reverse proxy error",
			zap.String("target", target.Redacted()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		server.BadGateway(w, "upstream unavailable", r.URL.Path)
	}
}
