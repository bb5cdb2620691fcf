package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxLineLen bounds the length of one request line, terminator
// included.  No valid command comes anywhere near it.
const MaxLineLen = 512

// ErrLineTooLong reports a request line with no terminator within the
// read buffer.  The oversized line is discarded and the connection
// remains usable.
var ErrLineTooLong = errors.New("request line too long")

// LineReader reads newline-terminated request lines from a connection
// with a fixed-size buffer.  ReadSlice is used rather than ReadString
// so a missing terminator cannot grow the buffer without bound.
type LineReader struct {
	br *bufio.Reader
}

// NewLineReader wraps r with a MaxLineLen-sized buffer.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReaderSize(r, MaxLineLen)}
}

// ReadLine returns the next request line without its trailing newline.
// io.EOF means the peer disconnected.  ErrLineTooLong means the line
// exceeded MaxLineLen; the remainder of that line has been drained so
// the next call starts on a fresh line.
func (lr *LineReader) ReadLine() (string, error) {
	line, err := lr.br.ReadSlice('\n')
	switch {
	case err == nil:
		return strings.TrimSuffix(string(line), "\n"), nil
	case errors.Is(err, bufio.ErrBufferFull):
		if derr := lr.drainLine(); derr != nil {
			return "", derr
		}
		return "", ErrLineTooLong
	case errors.Is(err, io.EOF) && len(line) > 0:
		// Final line without a terminator still counts.
		return string(line), nil
	default:
		return "", err
	}
}

// drainLine discards input up to and including the next newline.
func (lr *LineReader) drainLine() error {
	for {
		_, err := lr.br.ReadSlice('\n')
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return err
		}
	}
}
