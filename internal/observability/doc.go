// Package observability builds the structured logger used across the
// gateway.
//
// Metrics and tracing are registered next to the code they measure
// (see package appservice); this package only owns logger construction.
package observability
