package extract

import "reflect"

// Entry pairs one extracted value with every path at which it occurred,
// in traversal order.
type Entry struct {
	File  any
	Paths []string
}

// Files is the ordered, identity-keyed collection of extracted values.
// Two distinct files with identical content remain distinct entries;
// the same file reached at several paths is a single entry whose path
// list grows in first-seen order.
type Files struct {
	entries []Entry
	index   map[any]int
}

func newFiles() *Files {
	return &Files{index: make(map[any]int)}
}

// Len returns the number of distinct extracted values.
func (f *Files) Len() int { return len(f.entries) }

// Entries returns all entries in first-seen order. The returned slice is
// shared with the collection and must not be modified.
func (f *Files) Entries() []Entry { return f.entries }

// Paths returns the recorded paths for file, or nil if file was never
// extracted.
func (f *Files) Paths(file any) []string {
	if i, ok := f.index[identityOf(file)]; ok {
		return f.entries[i].Paths
	}
	return nil
}

func (f *Files) add(file any, path string) {
	id := identityOf(file)
	if i, ok := f.index[id]; ok {
		f.entries[i].Paths = append(f.entries[i].Paths, path)
		return
	}
	f.index[id] = len(f.entries)
	f.entries = append(f.entries, Entry{File: file, Paths: []string{path}})
}

// refKey keys reference-kind values by their referent.
type refKey struct {
	typ reflect.Type
	ptr uintptr
}

// sliceKey includes the length: two slices may share a backing array
// while exposing different windows of it.
type sliceKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// identityOf maps a value to a comparable token such that two tokens are
// equal exactly when the values are the same instance. Reference kinds
// key by referent; other comparable values key by value (Go value types
// have no instance identity); non-comparable values get a fresh token
// per occurrence, so each occurrence counts as distinct.
func identityOf(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Func, reflect.Map:
		return refKey{typ: rv.Type(), ptr: rv.Pointer()}
	case reflect.Slice:
		return sliceKey{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
	default:
		if rv.IsValid() && rv.Comparable() {
			return v
		}
		return new(int)
	}
}
