package model

import "errors"

// ErrInvalid is returned when a record fails validation.
var ErrInvalid = errors.New("invalid record")
