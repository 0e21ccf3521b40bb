// Package fileutil provides crash-safe file writes shared by the persistence
// packages.
package fileutil
