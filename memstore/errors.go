package memstore

import "errors"

// ErrUnexpectedSnapshot is returned by ClearSnapshot when called with a
// reference that is not the MemStore's current snapshot set. It does not
// corrupt state: the MemStore is left exactly as it was.
var ErrUnexpectedSnapshot = errors.New("memstore: clearSnapshot called with a stale snapshot reference")
