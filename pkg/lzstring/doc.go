// Package lzstring implements the URI-safe variant of the lz-string
// compression format.
//
// Shareable exploration links carry their id lists in this encoding so that
// links produced by the web front-end and by forgemap are interchangeable.
// The algorithm operates on UTF-16 code units, exactly like the JavaScript
// reference, and emits characters from a 64-symbol alphabet that needs no
// percent-escaping in a query string.
//
//	token := lzstring.CompressToEncodedURIComponent("1,2,3")
//	plain, err := lzstring.DecompressFromEncodedURIComponent(token)
package lzstring
