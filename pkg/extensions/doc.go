// Package extensions holds small helpers shared by the other enkoni packages:
// a typed event that can be fired safely without subscribers and culture aware
// string capitalization.
package extensions
