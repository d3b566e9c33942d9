// Package appservice authenticates requests against the App Service
// session introspection endpoint (/.auth/me).
//
// This package implements:
//   - Request inspection (skip when an identity is already attached)
//   - Session forwarding (cookies and X-ZUMO-* headers)
//   - The introspection call with per-call cookie jar and timeout
//   - Payload parsing and identity/claim construction
//   - Outcome classification (Skip, Fail, Success)
//
// The host adapter lives in the middleware package; nothing here touches
// the inbound http.Request directly.
package appservice
