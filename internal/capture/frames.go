package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the latest JPEG-encoded preview frame so viewers never
// compete with the tracker for the camera.
type FrameBuffer struct {
	mirror bool
	jpeg   []byte
	seq    uint64
	mu     sync.RWMutex
}

// NewFrameBuffer creates an empty buffer. When mirror is set frames are
// flipped horizontally before encoding, matching the inverted pitch axis.
func NewFrameBuffer(mirror bool) *FrameBuffer {
	return &FrameBuffer{mirror: mirror}
}

// Put encodes frame and makes it the latest. The caller keeps ownership of
// frame.
func (b *FrameBuffer) Put(frame *gocv.Mat) error {
	data, err := EncodeJPEG(frame, b.mirror)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.jpeg = data
	b.seq++
	b.mu.Unlock()

	return nil
}

// Latest returns the newest frame and its sequence number; seq is 0 until
// the first Put.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}

// EncodeJPEG encodes frame, optionally mirrored.
func EncodeJPEG(frame *gocv.Mat, mirror bool) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	src := *frame
	if mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(*frame, &flipped, 1)
		src = flipped
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
