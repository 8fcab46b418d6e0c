package metrics

import "errors"

// ErrExportFailed reports a registry that could not be gathered or encoded.
var ErrExportFailed = errors.New("metrics export failed")
