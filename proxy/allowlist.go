// Package proxy forwards admin-panel requests to the partner banking APIs.
// Only hosts on the allow-list are ever contacted.
package proxy

import (
	"net/url"

	"apidocs-admin/apierrors"
)

// DefaultAllowedHosts are the partner API hosts the admin panel may reach.
var DefaultAllowedHosts = []string{
	"api.bankkaro.com",
	"uat-platform.bankkaro.com",
	"prod-platform.bankkaro.com",
	"bk-api.bankkaro.com",
	"stg-api.bankkaro.com",
}

// AllowList is a fixed set of hostnames, matched exactly and case-sensitively.
type AllowList struct {
	hosts map[string]struct{}
}

func NewAllowList(hosts ...string) *AllowList {
	a := &AllowList{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		a.hosts[h] = struct{}{}
	}
	return a
}

// Allows reports whether host is on the list.
func (a *AllowList) Allows(host string) bool {
	_, ok := a.hosts[host]
	return ok
}

// Check parses rawURL and returns it when its hostname is allowed.
// Relative or malformed URLs are rejected the same way as foreign hosts.
func (a *AllowList) Check(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, &apierrors.ForbiddenDomainError{}
	}
	if !a.Allows(u.Hostname()) {
		return nil, &apierrors.ForbiddenDomainError{Host: u.Hostname()}
	}
	return u, nil
}
