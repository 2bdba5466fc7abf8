package eventstream

import "errors"

// ErrNilChunksEvent indicates a nil chunks event payload was provided to a publisher.
var ErrNilChunksEvent = errors.New("nil chunks indexed event")
