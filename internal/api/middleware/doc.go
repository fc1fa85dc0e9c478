// Package middleware holds the gin middleware shared by the HTTP surface:
// CORS, per-IP rate limiting, request IDs and request logging.
package middleware
