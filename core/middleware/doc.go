// Package middleware groups the fiber middlewares shared by every route:
// rayid tags each request with an id for log correlation and auth guards the
// API with a static key.
package middleware
