// Package entities provides repositories that stage additions, updates and
// deletions in memory and reconcile them with a backing source on
// SaveChanges. File backed sources read and write CSV, XML or JSON documents
// through an afero filesystem, guard saves with a lock file and can monitor
// the file to keep a parsed cache fresh.
package entities
