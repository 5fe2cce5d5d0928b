package structpatch

import "errors"

var (
	// ErrValidation marks a (path, value) pair rejected by a patch's
	// validator. The patch is unchanged when Add or Merge return it.
	ErrValidation = errors.New("validation error")

	// ErrConversion marks a value that could not be encoded into, or a
	// pair of values that cannot be diffed in, the patch representation.
	ErrConversion = errors.New("conversion error")

	// ErrUnknownPath marks a patch entry whose path does not resolve to a
	// field or index of the apply target.
	ErrUnknownPath = errors.New("unknown path")

	// ErrDecode marks a stored value that failed to decode into the
	// target field's type during apply.
	ErrDecode = errors.New("decode error")
)
