package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is returned by injected faults that carry no error of their own.
var ErrInjected = errors.New("injected fault")

// Op selects the operations a Rule fails.
type Op uint8

const (
	OpWrite Op = 1 << iota
	OpSync
	OpRename
)

// Rule fails the operations in Ops on files whose name contains Match.
// Writes fail once more than AfterBytes bytes would have been written to
// one file.
type Rule struct {
	Match      string
	Ops        Op
	AfterBytes int64
	Err        error
}

func (r Rule) err() error {
	if r.Err != nil {
		return r.Err
	}
	return ErrInjected
}

// FaultyFS wraps a FileSystem and injects failures for matching files.
type FaultyFS struct {
	inner FileSystem

	mu    sync.Mutex
	rules []Rule
}

// NewFaultyFS wraps inner, or Default when inner is nil.
func NewFaultyFS(inner FileSystem, rules ...Rule) *FaultyFS {
	if inner == nil {
		inner = Default
	}
	return &FaultyFS{inner: inner, rules: rules}
}

// Inject adds a rule. Earlier rules win when several match.
func (f *FaultyFS) Inject(r Rule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, r)
}

func (f *FaultyFS) rule(name string, op Op) (Rule, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.Ops&op != 0 && strings.Contains(name, r.Match) {
			return r, true
		}
	}
	return Rule{}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.inner.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f, name: name}, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if r, ok := f.rule(newpath, OpRename); ok {
		return r.err()
	}
	return f.inner.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error                     { return f.inner.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error)        { return f.inner.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.inner.MkdirAll(path, perm) }
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error)   { return f.inner.ReadDir(name) }

type faultyFile struct {
	File
	fs      *FaultyFS
	name    string
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if r, ok := ff.fs.rule(ff.name, OpWrite); ok && ff.written+int64(len(p)) > r.AfterBytes {
		return 0, r.err()
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if r, ok := ff.fs.rule(ff.name, OpSync); ok {
		return r.err()
	}
	return ff.File.Sync()
}
