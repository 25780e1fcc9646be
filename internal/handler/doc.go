// Package handler exposes the billing HTTP API.
//
// Public routes under /api/billing expect the gateway-injected
// X-User-Id (and optional X-Org-Id) identity headers. The webhook
// route authenticates with the provider signature instead, and
// /internal routes are service-to-service only.
package handler
