package util

import (
	"context"
	"errors"
	"io"
	"net"
)

// BidirectionalCopy shuffles data between a network connection and a
// reader/writer pair (typically stdin/stdout) until one side reaches
// EOF or the context is cancelled.  Both directions copy through
// pooled buffers.
func BidirectionalCopy(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	netDone := make(chan error, 1)
	inDone := make(chan error, 1)

	// network → writer
	go func() {
		netDone <- copyPooled(w, conn)
		// Server closed the stream (or errored); nothing more can
		// arrive, so tear the session down.
		cancel()
	}()

	// reader → network
	go func() {
		err := copyPooled(conn, r)
		// Half-close the write side so the remote knows we're done
		// sending, but keep reading to drain any remaining responses.
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite() //nolint:errcheck
		}
		inDone <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock any pending reads/writes

	// The network side always unblocks once the conn is closed.  The
	// input side may still be parked on a read from r (an interactive
	// stdin, say) with nothing left to send to; never wait for it.
	err := <-netDone
	select {
	case inErr := <-inDone:
		if err == nil || isHarmless(err) {
			err = inErr
		}
	default:
	}

	if err != nil && !isHarmless(err) {
		return err
	}
	return nil
}

// copyPooled is io.Copy through a pooled buffer.
func copyPooled(dst io.Writer, src io.Reader) error {
	buf := GetBuf()
	defer PutBuf(buf)
	_, err := io.CopyBuffer(dst, src, *buf)
	return err
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
