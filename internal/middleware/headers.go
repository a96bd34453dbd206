// Package middleware provides endpoint processors shared by the HTTP
// surface: security headers, request logging, and rate limiting.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/hryh/wendrops/internal/endpoint"
)

// SecurityHeadersProcessor sets baseline security headers on every
// response.
//
// Defaults favor the product's static pages: HSTS for a year with
// subdomains, nosniff, DENY framing, and a strict referrer policy. The API
// mount uses the same processor; the service worker and WebView shell both
// consume the same origin so no CORS handling is needed.
type SecurityHeadersProcessor struct {
	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds.
	// Zero disables the header.
	HSTSMaxAge int

	// ReferrerPolicy sets the Referrer-Policy header. Empty disables.
	ReferrerPolicy string

	// FrameOptions sets X-Frame-Options. Empty disables.
	FrameOptions string

	// ContentTypeOptions controls X-Content-Type-Options: nosniff.
	ContentTypeOptions bool
}

// NewSecurityHeadersProcessor returns the default web configuration.
func NewSecurityHeadersProcessor() *SecurityHeadersProcessor {
	return &SecurityHeadersProcessor{
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		FrameOptions:       "DENY",
		ContentTypeOptions: true,
	}
}

// Process implements endpoint.Processor.
func (p *SecurityHeadersProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	h := w.Header()
	if p.HSTSMaxAge > 0 {
		h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(p.HSTSMaxAge)+"; includeSubDomains")
	}
	if p.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", p.ReferrerPolicy)
	}
	if p.FrameOptions != "" {
		h.Set("X-Frame-Options", p.FrameOptions)
	}
	if p.ContentTypeOptions {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	return next(w, r)
}

var _ endpoint.Processor = (*SecurityHeadersProcessor)(nil)
