package meetkb

import "errors"

// ErrConfigRequired is returned when NewEngine is called without a configuration.
var ErrConfigRequired = errors.New("configuration required")
