// Package mmap maps dataset files read-only into memory.
//
// Large .npy inputs are parsed straight out of the mapping instead of being
// streamed through a buffered reader first:
//
//	m, err := mmap.Open("telemetry.npy")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// The slice returned by Bytes is only valid until Close. Callers that keep
// the contents must copy them.
package mmap
