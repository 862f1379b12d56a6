// Package musiclink parses catalog links into content references without any
// network access.
package musiclink

import "errors"

// ErrNotResolvable is returned for links that do not point at a catalog object.
var ErrNotResolvable = errors.New("link is not a resolvable spotify link")
