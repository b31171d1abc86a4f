// Package utils holds conversions for loosely typed input: spreadsheet cells and
// webhook metadata values arrive as strings, floats or nil and are normalized here
// before reaching the inventory services.
package utils
