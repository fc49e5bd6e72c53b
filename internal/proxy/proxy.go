// Package proxy forwards read-only catalog routes to the backend unchanged,
// speaking for the browser's session.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/middleware"
)

// CookieSource returns the backend credentials of the request's session.
type CookieSource func(r *http.Request) []*http.Cookie

// New creates a reverse proxy that rewrites paths and propagates context headers.
// backendURL: "http://localhost:5000/api/v1"
// stripPrefix: "/api/catalog"
// upstreamPrefix: "/category"
//
// The browser's own cookies stay at the BFF; the upstream sees the session's
// backend cookies instead, and backend Set-Cookie headers never reach the
// browser.
func New(backendURL, stripPrefix, upstreamPrefix string, cookies CookieSource) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = &middleware.TracingTransport{}
	originalDirector := proxy.Director

	proxy.Director = func(req *http.Request) {
		// Path Rewrite: /api/catalog/x -> /category/x, then joined onto the
		// backend base path
		if strings.HasPrefix(req.URL.Path, stripPrefix) {
			req.URL.Path = upstreamPrefix + strings.TrimPrefix(req.URL.Path, stripPrefix)
			req.URL.RawPath = ""
		}

		originalDirector(req)
		req.Host = target.Host

		req.Header.Del("Cookie")
		if cookies != nil {
			for _, c := range cookies(req) {
				req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
			}
		}

		if reqID := middleware.GetRequestID(req.Context()); reqID != "" {
			req.Header.Set(middleware.HeaderXRequestID, reqID)
		}
	}

	proxy.ModifyResponse = func(resp *http.Response) error {
		resp.Header.Del("Set-Cookie")
		return nil
	}

	// Upstream down / timeout
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		reqID := middleware.GetRequestID(r.Context())

		logger.Ctx(r.Context()).Error().
			Err(err).
			Str("target", backendURL).
			Msg("upstream_proxy_error")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		// raw string keeps the proxy free of handler types
		_, _ = w.Write([]byte(`{"error":{"code":"backend_unavailable","message":"Something went wrong","request_id":"` + reqID + `"}}`))
	}

	return proxy, nil
}
