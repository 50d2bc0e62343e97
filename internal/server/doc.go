// Package server implements the HTTP and WebSocket transport for chatron.
//
// A single Hub goroutine owns the chat dispatcher; per-connection read pumps
// decode frames into chat events and queue them on the hub, write pumps drain
// each client's outbound queue. Configuration, routing, origin checks and
// server lifecycle helpers live alongside.
package server
