package util

import "sync"

// CopyBufSize is the buffer size for the client's raw stream copy
// (8 KiB; bank traffic is short command and response lines).
const CopyBufSize = 8 * 1024

// bufPool provides reusable byte buffers for stream copying, so that
// each client connection attempt does not allocate fresh ones.
var bufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return bufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	bufPool.Put(buf)
}
