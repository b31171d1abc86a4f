// Package server holds the HTTP server configuration.
//
// The start command owns the fiber application; this package only defines the
// listen port, the API key guarding every route and the warehouse the order
// webhook sells from.
package server
