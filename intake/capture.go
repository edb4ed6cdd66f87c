package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Camera facing hints passed to a SourceOpener.
const (
	FacingEnvironment = "environment"
	FacingUser        = "user"
)

// FrameSource is a live camera-style stream that can grab still frames.
type FrameSource interface {
	// Grab returns one JPEG-encoded frame.
	Grab(ctx context.Context) ([]byte, error)
	Close() error
}

// SourceOpener opens a FrameSource with the given facing hint.
type SourceOpener func(ctx context.Context, facing string) (FrameSource, error)

// CaptureSession scopes a camera acquisition: open once, grab any number
// of stills, and release the source exactly once on Close. A failed open
// (permission denied) is logged and leaves the session open but not
// ready; there is no automatic retry.
type CaptureSession struct {
	mu     sync.Mutex
	src    FrameSource
	logger *zap.Logger
	closed bool
}

// OpenCapture opens a rear-facing frame source for a capture session.
func OpenCapture(ctx context.Context, open SourceOpener, logger *zap.Logger) *CaptureSession {
	cs := &CaptureSession{logger: logger}
	src, err := open(ctx, FacingEnvironment)
	if err != nil {
		logger.Error("camera access error", zap.Error(err))
		return cs
	}
	cs.src = src
	return cs
}

// Ready reports whether the session has a live frame source.
func (cs *CaptureSession) Ready() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.src != nil && !cs.closed
}

// Capture grabs one still and wraps it as a staged-file candidate named
// photo-<unix-ms>.jpg.
func (cs *CaptureSession) Capture(ctx context.Context) (File, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return File{}, fmt.Errorf("intake: capture session closed")
	}
	if cs.src == nil {
		return File{}, fmt.Errorf("intake: camera not available")
	}
	frame, err := cs.src.Grab(ctx)
	if err != nil {
		return File{}, fmt.Errorf("intake: grab frame: %w", err)
	}
	name := fmt.Sprintf("photo-%d.jpg", time.Now().UnixMilli())
	return File{Name: name, MIME: "image/jpeg", Data: frame}, nil
}

// Close releases the frame source. Safe to call more than once; the
// source is released exactly once.
func (cs *CaptureSession) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil
	}
	cs.closed = true
	if cs.src == nil {
		return nil
	}
	err := cs.src.Close()
	cs.src = nil
	return err
}
