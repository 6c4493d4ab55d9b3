// Package transform provides extract.Transformer implementations: jq
// programs over the object's JSON form, and chains of transformers.
package transform
