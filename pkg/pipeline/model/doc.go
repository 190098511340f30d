// Package model provides the data structures of the pipeline tree.
// It defines the nodes of the tree, their kinds and shapes, and the specs carried by
// generator and model nodes.
package model
