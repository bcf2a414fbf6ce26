package consumption

import "errors"

var ErrInvalidSemantics = errors.New("consumption: invalid semantics")
