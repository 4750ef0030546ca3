// Package swagger serves the API description and a ReDoc page for it.
package swagger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/okian/scorecard/pkg/logger"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

const (
	localRedocPath = "/api-docs/redoc.standalone.js"
	remoteRedocURL = "https://cdn.redoc.ly/redoc/v2.5.0/bundles/redoc.standalone.js"
)

// Option applies a configuration option to Register.
type Option func(*options)

type options struct {
	bundlePath string
	logger     logger.Logger
}

// WithRedocBundle serves the ReDoc standalone bundle at path from
// /api-docs/redoc.standalone.js so the docs page works without internet
// access. Without it the page loads the bundle from the ReDoc CDN.
func WithRedocBundle(path string) Option {
	return func(o *options) {
		o.bundlePath = strings.TrimSpace(path)
	}
}

// WithLogger sets the logger used to report an unreadable bundle.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs                       -> ReDoc HTML
//	GET /openapi.yaml                   -> embedded OpenAPI spec
//	GET /api-docs/redoc.standalone.js   -> local ReDoc bundle, when configured
func Register(ctx context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("swagger")
	}

	script := remoteRedocURL
	if o.bundlePath != "" {
		bundle, err := os.ReadFile(o.bundlePath)
		if err != nil {
			o.logger.Warn(ctx, "redoc bundle unavailable, docs page falls back to the CDN",
				logger.Error(fmt.Errorf("%w: %w", ErrServe, err)))
		} else {
			script = localRedocPath
			mux.HandleFunc(localRedocPath, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
				_, _ = w.Write(bundle)
			})
		}
	}
	page := fmt.Sprintf(indexHTML, script)

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Scorecard API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="%s"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
