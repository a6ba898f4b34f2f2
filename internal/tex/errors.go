package tex

import "errors"

var (
	ErrUnknownFormat    = errors.New("tex: unknown format")
	ErrIncompleteHeader = errors.New("tex: incomplete header")
	ErrInvalidFormat    = errors.New("tex: invalid format")
	ErrInvalidSize      = errors.New("tex: invalid size")
	ErrInvalidColorType = errors.New("tex: invalid color type")
	ErrInvalidLayout    = errors.New("tex: invalid layout")
	ErrCompressed       = errors.New("tex: compressed variant not supported")
	ErrInvalidFlags     = errors.New("tex: invalid flags")
	ErrInvalidBpp       = errors.New("tex: invalid bpp")
	ErrNoData           = errors.New("tex: no data")

	// ErrCannotHandle is returned by a codec or the plain transformer when a
	// request is outside what it implements. Dispatch treats it as "try the
	// next one", not as a failure.
	ErrCannotHandle = errors.New("tex: cannot handle")

	// ErrInvalidData marks a non-conforming but decodable file. It is only
	// ever reported as a warning.
	ErrInvalidData = errors.New("tex: invalid data")
)
