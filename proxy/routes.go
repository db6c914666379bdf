package proxy

import (
	"fmt"
	"strings"

	"apidocs-admin/apierrors"
)

// ForwardedHeaders are the inbound headers the path-routed endpoint copies
// upstream, and only when the caller sent them.
var ForwardedHeaders = []string{"authorization", "partner-token", "x-api-key"}

// Route maps a path prefix to the base URL that serves it.
type Route struct {
	Prefix string
	Base   string
}

// Routes picks an upstream base URL by path prefix. The first matching
// prefix wins; unmatched paths go to Default.
type Routes struct {
	routes []Route
	def    string
}

// NewRoutes validates every base URL against allow before accepting it.
func NewRoutes(allow *AllowList, def string, routes ...Route) (*Routes, error) {
	if _, err := allow.Check(def); err != nil {
		return nil, fmt.Errorf("default base %q: %w", def, err)
	}
	for _, r := range routes {
		if _, err := allow.Check(r.Base); err != nil {
			return nil, fmt.Errorf("base for %q: %w", r.Prefix, err)
		}
	}
	return &Routes{routes: routes, def: strings.TrimRight(def, "/")}, nil
}

// Resolve builds the upstream URL for path (without a leading slash) and
// the raw query string. The full path is kept, prefix included.
func (r *Routes) Resolve(path, rawQuery string) (string, error) {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", apierrors.Validation("No path specified")
	}

	base := r.def
	for _, rt := range r.routes {
		if strings.HasPrefix(path, rt.Prefix) {
			base = strings.TrimRight(rt.Base, "/")
			break
		}
	}

	target := base + "/" + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target, nil
}
