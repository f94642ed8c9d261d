// Package server holds the HTTP server configuration.
//
// The main application entry point handles the server startup; this
// package only defines the configuration structure shared by the
// core/config package and the API feature handlers.
package server
