package checkpoint

import "errors"

// ErrUnsupportedVersion is returned when the checkpoint file was written
// by an incompatible format version. This is fatal at startup: the file
// holds real progress that this release cannot interpret.
var ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")
