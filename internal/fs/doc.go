// Package fs is the file system seam of the local artifact store.
//
// WriteAtomic implements the temp-file, sync, rename sequence used for every
// local blob. FaultyFS fails writes, syncs or renames of matching files so
// tests can show that a failed write never leaves a partial blob behind.
package fs
