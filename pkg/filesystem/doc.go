// Package filesystem provides the types.FS implementations ckit
// writes through: the real OS filesystem for commands and an afero
// adapter so executor tests can run fully in memory.
package filesystem
