// Package httputil provides HTTP client helpers shared by the fractal SDK:
// a file-based response cache and retry logic with exponential backoff.
package httputil
