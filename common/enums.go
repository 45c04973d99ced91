// Package common holds enums shared between configuration and engine
// packages so that engine does not depend on configuration.
package common

//go:generate go tool go-enum --marshal --names

// Initial splitting of text into visual nodes, white-space declarations
// may change it later.
// ENUM(keep, words, whole)
type WrapMode int

// Words returns true when text is split into per word nodes.
func (w WrapMode) Words() bool {
	return w == WrapModeWords
}
