package history

import "errors"

// ErrIndexOutOfRange reports an index that does not address an existing
// position. Store does not return it: Insert treats an out-of-range
// index as Push, Remove reports false, and Replace returns a Noop
// mutation.
var ErrIndexOutOfRange = errors.New("history: index out of range")
