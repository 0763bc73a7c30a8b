package search

import "errors"

var errInvalidUTF8 = errors.New("content is not valid UTF-8")
