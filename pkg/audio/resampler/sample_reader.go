package resampler

import "io"

// sampleReader returns whole frames only, holding a partial frame back for
// the next Read.
type sampleReader struct {
	r          io.Reader
	frameSize  int
	pending    []byte
	numPending int
}

func newSampleReader(r io.Reader, frameSize int) *sampleReader {
	return &sampleReader{
		r:         r,
		frameSize: frameSize,
		pending:   make([]byte, frameSize-1),
	}
}

// Read fills p with a multiple of frameSize bytes. At end of input an
// unaligned tail is returned with io.ErrUnexpectedEOF.
func (sr *sampleReader) Read(p []byte) (n int, err error) {
	if len(p) < sr.frameSize {
		return 0, io.ErrShortBuffer
	}

	p = p[:len(p)/sr.frameSize*sr.frameSize]
	if sr.numPending > 0 {
		n = copy(p, sr.pending[:sr.numPending])
		sr.numPending = 0
	}

	rn, err := sr.r.Read(p[n:])
	n += rn
	if err != nil {
		if err == io.EOF && n%sr.frameSize != 0 {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if rem := n % sr.frameSize; rem != 0 {
		n -= rem
		copy(sr.pending[:rem], p[n:n+rem])
		sr.numPending = rem
	}
	return n, nil
}
