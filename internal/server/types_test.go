package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestIsExpectedCloseError(t *testing.T) {
	closed := &net.OpError{Op: "read", Net: "tcp", Err: net.ErrClosed}
	pipe := &net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", syscall.EPIPE)}

	require.True(t, isExpectedCloseError(nil))
	require.True(t, isExpectedCloseError(closed))
	require.True(t, isExpectedCloseError(pipe))
	require.True(t, isExpectedCloseError(fmt.Errorf("flush: %w", websocket.ErrCloseSent)))
	require.False(t, isExpectedCloseError(errors.New("tls: bad record MAC")))
}
