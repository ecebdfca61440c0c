package errors

import "errors"

// ErrStaleWrite the row changed state between read and conditional write
var ErrStaleWrite = errors.New("record was modified by another operation, refresh and retry")
