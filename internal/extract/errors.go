package extract

import "errors"

// ErrUnsupportedContentType is returned for payloads that are not HTML.
// The target is marked failed without retrying; refetching will not
// change the content type.
var ErrUnsupportedContentType = errors.New("extract: unsupported content type")
