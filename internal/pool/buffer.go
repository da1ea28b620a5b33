package pool

import (
	"sync"
)

// LineBufferSize is the starting capacity for line accumulation (64KB)
const LineBufferSize = 64 * 1024

// BufferPool manages reusable line-accumulation buffers to reduce
// allocations when many objects are scanned concurrently.
type BufferPool struct {
	line *sync.Pool
}

// NewBufferPool creates a new buffer pool with the default size.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		line: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 0, LineBufferSize)
				return &buf
			},
		},
	}
}

// GetLine returns a zero-length line accumulation buffer from the pool.
// The caller is responsible for calling PutLine to return it.
func (bp *BufferPool) GetLine() []byte {
	bufPtr := bp.line.Get().(*[]byte)
	return (*bufPtr)[:0]
}

// PutLine returns a line buffer to the pool. Buffers that grew far beyond
// the pooled size are dropped to avoid pinning memory for one huge line.
func (bp *BufferPool) PutLine(buf []byte) {
	if cap(buf) > 16*LineBufferSize {
		return
	}
	buf = buf[:0]
	bp.line.Put(&buf)
}

// Global buffer pool instance shared by all scans.
var globalBufferPool = NewBufferPool()

// GetLineBuffer returns a line buffer from the global pool.
func GetLineBuffer() []byte {
	return globalBufferPool.GetLine()
}

// PutLineBuffer returns a line buffer to the global pool.
func PutLineBuffer(buf []byte) {
	globalBufferPool.PutLine(buf)
}
