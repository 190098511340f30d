// Package codec converts pipeline documents to tree nodes and back.
//
// A Decoder classifies each step of a document into one of a closed set of shapes, in
// order, first match wins:
//
//  1. a bare string naming a component (identifier, or marker for chart steps)
//  2. a {reference, parameters} mapping
//  3. a {name, model, train_parameters, finetune_parameters} mapping
//  4. a mapping whose only key is a container keyword
//  5. a {choice-set, size, count} mapping
//  6. a {numeric-range, param, model} mapping
//  7. a bare string naming a configured marker keyword
//  8. anything else, kept verbatim as an unknown node
//
// Steps that cannot be resolved against the catalog are never an error: they decode to an
// unknown node holding the untouched input, and the Encoder writes that input back as it
// was. Encoding the result of a decode therefore reproduces the document.
package codec
