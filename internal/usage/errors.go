package usage

import "errors"

// ErrLimitReached indicates the user has no image credits left this period.
var ErrLimitReached = errors.New("limit reached")
