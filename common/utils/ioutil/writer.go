package ioutil

import "io"

type ProgressWriter struct {
	wr      io.Writer
	onWrite func(n int)
}

func (p *ProgressWriter) Write(buf []byte) (n int, err error) {
	n, err = p.wr.Write(buf)
	if n > 0 {
		p.onWrite(n)
	}
	return
}

func NewProgressWriter(
	wr io.Writer,
	onWrite func(n int),
) *ProgressWriter {
	return &ProgressWriter{
		wr:      wr,
		onWrite: onWrite,
	}
}
