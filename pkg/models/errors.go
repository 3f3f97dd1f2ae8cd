package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInsufficientCapacity means the framed payload does not fit in the carrier.
	ErrInsufficientCapacity = errors.New("insufficient carrier capacity")

	// ErrIncompletePayload means a frame declares more bytes than the bit stream holds.
	ErrIncompletePayload = errors.New("incomplete payload")

	// ErrNoPayloadFound means extraction found no valid frame in the carrier.
	ErrNoPayloadFound = errors.New("no hidden payload found")

	// ErrTranscodeFailed means the external transcoder failed, exited non-zero or timed out.
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrModelUnavailable means the detection model could not be loaded or is unusable.
	ErrModelUnavailable = errors.New("detection model unavailable")

	// ErrNoAudioTrack means a video container has no audio stream to embed into or read from.
	ErrNoAudioTrack = errors.New("no audio track")

	// ErrFrameBudgetExceeded means decoding would allocate more frame data than allowed.
	ErrFrameBudgetExceeded = errors.New("decoded frame budget exceeded")

	// ErrUnsupportedFormat means a file or output path is not a format the tool reads or writes.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// CapacityError reports how many bits a payload needed and how many the carrier offers.
type CapacityError struct {
	Needed    int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: need %d bits, carrier holds %d", ErrInsufficientCapacity, e.Needed, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// TranscodeError wraps a failed external transcoder invocation.
type TranscodeError struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrTranscodeFailed, e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *TranscodeError) Is(target error) bool {
	return target == ErrTranscodeFailed
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// ModelError reports which model artifact could not be used.
type ModelError struct {
	Path string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrModelUnavailable, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrModelUnavailable, e.Path, e.Err)
}

func (e *ModelError) Is(target error) bool {
	return target == ErrModelUnavailable
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
