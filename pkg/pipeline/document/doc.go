// Package document provides the value model used to read and write pipeline documents.
//
// Pipeline documents are nested JSON or YAML structures. The generic decoders of both formats
// lose information that matters for a lossless round trip: mapping key order and the literal
// text of numbers. Values in this package keep both, so a step that is read and written back
// without being interpreted comes out exactly as it went in.
package document
