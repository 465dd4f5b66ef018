// Package log records protocol traces as hourly zstd-compressed JSON line
// files.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// segment is one open trace file: file, compressor, buffer and encoder
// stacked in that order.
type segment struct {
	path string
	f    *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func openSegment(path string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	// Appending after a reopen starts a new zstd frame; readers decode
	// concatenated frames as one stream.
	zw, err := zstd.NewWriter(f,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(zw, 64*1024)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &segment{path: path, f: f, zw: zw, buf: buf, enc: enc}, nil
}

func (s *segment) close() error {
	ferr := s.buf.Flush()
	zerr := s.zw.Close()
	cerr := s.f.Close()
	switch {
	case ferr != nil:
		return ferr
	case zerr != nil:
		return zerr
	default:
		return cerr
	}
}

// segmentWriter appends trace entries to <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst,
// switching files when the UTC hour changes.
type segmentWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	hour string
	cur  *segment
}

func newSegmentWriter(dir, prefix string) *segmentWriter {
	return &segmentWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *segmentWriter) write(e TraceEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if w.cur == nil || hour != w.hour {
		if err := w.closeLocked(); err != nil {
			return err
		}
		seg, err := openSegment(filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour)))
		if err != nil {
			return err
		}
		w.cur, w.hour = seg, hour
	}
	return w.cur.enc.Encode(e)
}

// flush pushes buffered lines into the compressor. They become readable
// once the segment is closed.
func (w *segmentWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return nil
	}
	return w.cur.buf.Flush()
}

func (w *segmentWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *segmentWriter) closeLocked() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.close()
	w.cur, w.hour = nil, ""
	return err
}
