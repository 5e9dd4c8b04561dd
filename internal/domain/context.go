// Package domain provides core types, errors and context helpers for the
// contact website.
//
// Context helpers centralize request-scoped data access so handlers and the
// contact composer agree on where the site identity and request metadata live.
package domain

import (
	"context"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// siteContextKey stores the site serving the request.
	siteContextKey contextKey = iota

	// requestInfoContextKey stores request metadata used for template rendering.
	requestInfoContextKey
)

// Site identifies the deployment that is sending mail (the "current site").
type Site struct {
	Name   string `yaml:"name" json:"name"`
	Domain string `yaml:"domain" json:"domain"`
}

// RequestInfo is read-only metadata about the inbound request.
// It enriches rendered messages and never drives business logic.
type RequestInfo struct {
	RequestID  string
	RemoteAddr string
	UserAgent  string
	Referer    string
}

// --- Site Context Helpers ---

// NewContextWithSite returns a new context carrying the site.
func NewContextWithSite(ctx context.Context, site Site) context.Context {
	return context.WithValue(ctx, siteContextKey, site)
}

// SiteFromContext returns the site stored in ctx and whether one was set.
func SiteFromContext(ctx context.Context) (Site, bool) {
	site, ok := ctx.Value(siteContextKey).(Site)
	return site, ok
}

// --- Request Info Context Helpers ---

// NewContextWithRequestInfo returns a new context carrying request metadata.
func NewContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoContextKey, info)
}

// RequestInfoFromContext returns request metadata, or the zero value when absent.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoContextKey).(RequestInfo)
	return info
}
