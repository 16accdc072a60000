package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

var (
	// ErrConnectionClosed means the peer (or a local Close) ended the stream
	// before the requested bytes were transferred.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTimeout means no data arrived within the idle window.
	ErrTimeout = errors.New("connection idle timeout")
)

// ReadFull fills buf completely, looping over short reads. A zero-length read
// is taken as peer closure.
func ReadFull(r io.Reader, buf []byte) error {
	totalRead := 0
	for totalRead < len(buf) {
		n, err := r.Read(buf[totalRead:])
		totalRead += n
		if totalRead == len(buf) {
			return nil
		}
		if err != nil {
			return classify(err)
		}
		if n == 0 {
			return ErrConnectionClosed
		}
	}
	return nil
}

// ReadBytes allocates and fills a buffer of exactly length bytes.
func ReadBytes(r io.Reader, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFull writes all of buf, looping over short writes.
func WriteFull(w io.Writer, buf []byte) error {
	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := w.Write(buf[totalWritten:])
		if err != nil {
			return classify(err)
		}
		if n == 0 {
			return ErrConnectionClosed
		}
		totalWritten += n
	}
	return nil
}

// IsExpectedDisconnect reports whether err is one of the ordinary ways a
// session ends (peer closed or idle timeout).
func IsExpectedDisconnect(err error) bool {
	return errors.Is(err, ErrConnectionClosed) || errors.Is(err, ErrTimeout)
}

func classify(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("error on socket: %w", err)
}

// Discard consumes exactly length bytes from r without keeping them.
func Discard(r io.Reader, length int) error {
	const chunk = 32 * 1024
	buf := make([]byte, min(length, chunk))
	for length > 0 {
		n := min(length, len(buf))
		if err := ReadFull(r, buf[:n]); err != nil {
			return err
		}
		length -= n
	}
	return nil
}
