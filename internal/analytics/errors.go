package analytics

import "errors"

var ErrInvalidGranularity = errors.New("analytics: invalid granularity")
