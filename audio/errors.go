package audio

import "errors"

// Error taxonomy for the upload/decode/trim pipeline. All of these are
// recoverable from the user's point of view: the frontend surfaces a message
// and the user retries with a new file or selection.
var (
	// ErrUnsupportedType means the chosen file is not an audio media type.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrRead means the file bytes could not be read.
	ErrRead = errors.New("read failure")

	// ErrDecode means the file contents could not be decoded as audio.
	ErrDecode = errors.New("decode error")

	// ErrInvalidSelection means a trim was requested with end <= start.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrEmptySelection means the selection is narrower than one sample frame.
	ErrEmptySelection = errors.New("selection narrower than one sample frame")
)
