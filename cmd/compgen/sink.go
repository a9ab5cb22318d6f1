package main

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// sinkPath extracts the file path from a zstd:// URL. "zstd:///abs/x.zst"
// names an absolute path, "zstd://rel/x.zst" a relative one.
func sinkPath(u *url.URL) string {
	if u.Host == "" {
		return u.Path
	}
	return u.Host + u.Path
}

// newCompressedSink opens the log file named by u for zstd-compressed
// writing. An existing zstd file gets new frames appended; anything else at
// that path is truncated.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := sinkPath(u)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		if isValidZstdFile(filePath) {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{
		file:    file,
		encoder: encoder,
	}, nil
}

// isValidZstdFile reports whether the file starts with the zstd magic
// number.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	header := make([]byte, len(zstdMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}
	return bytes.Equal(header, zstdMagic)
}

// compressedSink is a zap.Sink writing zstd frames to a file.
type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

// Write reports len(p) on success, not the compressed size, to honor the
// io.Writer contract.
func (s *compressedSink) Write(p []byte) (int, error) {
	if _, err := s.encoder.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close always closes the file, even if closing the encoder fails.
func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return encErr
	}
	return fileErr
}
