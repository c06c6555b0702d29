package advlib

import (
	"errors"
	"fmt"
)

// ErrDecode is wrapped by every error returned from this package.
var ErrDecode = errors.New("advlib: decode failed")

var (
	ErrInvalidInput          = fmt.Errorf("%w: input is not a byte sequence or hex string", ErrDecode)
	ErrTooShort              = fmt.Errorf("%w: buffer too short", ErrDecode)
	ErrRecordOverrun         = fmt.Errorf("%w: AD record overruns buffer", ErrDecode)
	ErrInvalidUUIDLength     = fmt.Errorf("%w: UUID list length", ErrDecode)
	ErrValueTooShort         = fmt.Errorf("%w: AD value too short", ErrDecode)
	ErrInvalidURIScheme      = fmt.Errorf("%w: URI scheme code", ErrDecode)
	ErrUnhandledProtocolData = fmt.Errorf("%w: no library handled protocol-specific data", ErrDecode)
)
