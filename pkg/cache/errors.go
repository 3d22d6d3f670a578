package cache

import "errors"

// ErrCorruptSnapshot is returned by a [Store] whose snapshot cannot be decoded.
// Callers usually log it and continue with an empty cache.
var ErrCorruptSnapshot = errors.New("corrupt cache snapshot")
