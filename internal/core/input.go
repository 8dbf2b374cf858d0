package core

// input.go reads uploaded files to completion and decodes them to text.
//
// Reading is the only asynchronous step of the pipeline: it runs in its own
// goroutine and is abandoned when the timeout fires or the caller cancels,
// discarding whatever was read so far.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultReadTimeout bounds a single file read.
const DefaultReadTimeout = 30 * time.Second

// DefaultMaxFileSize is the default upload size limit.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

type readResult struct {
	data []byte
	err  error
}

// ReadInput reads r to completion. It fails with ErrReadTimeout after
// timeout, with ctx's error on cancellation and with ErrFileTooLarge when r
// holds more than maxSize bytes. No partial data is returned on failure.
func ReadInput(ctx context.Context, r io.Reader, maxSize int64, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
		done <- readResult{data: data, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("read input: %w", res.err)
		}
		if int64(len(res.data)) > maxSize {
			return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxSize)
		}
		return res.data, nil
	case <-timer.C:
		return nil, ErrReadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DecodeInput converts raw file bytes to text.
//   - UTF-8, with or without BOM, passes through (BOM removed)
//   - UTF-16 with a BOM is transcoded
//   - anything else that is not valid UTF-8 is read as Windows-1252
//
// Text that still contains NUL characters is rejected with ErrUnreadableEncoding.
func DecodeInput(data []byte) (string, error) {
	var text string
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		text = string(data[3:])
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadableEncoding, err)
		}
		text = string(out)
	case utf8.Valid(data):
		text = string(data)
	default:
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadableEncoding, err)
		}
		text = string(out)
	}

	if bytes.IndexByte([]byte(text), 0) >= 0 {
		return "", ErrUnreadableEncoding
	}
	return text, nil
}
