package fetch

import "errors"

// ErrUnsupportedEncoding is returned when a response carries a
// Content-Encoding the transport cannot decode. Only encodings the
// fingerprint advertises (gzip, deflate) are expected.
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")
