// Package server holds small helpers shared by the client and hub logic.
package server

import (
	"errors"
	"net"
	"syscall"

	"github.com/gorilla/websocket"
)

// isExpectedCloseError reports errors that only mean the socket is already
// gone: our own close, a close frame already sent, or a peer that hung up.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
