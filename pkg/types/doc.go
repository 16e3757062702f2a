// Package types defines the core data model shared across ckit:
// tracked files and their ownership, manifest documents, sync plans,
// and uninstall analyses. It has no dependencies on other ckit
// packages so that every layer can import it freely.
package types
