package pageassets

import "errors"

// ErrDestinationCollision is returned when two different source files of one page
// would be mirrored onto the same destination path.
var ErrDestinationCollision = errors.New("destination collision")
