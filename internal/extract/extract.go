package extract

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
)

// Classifier decides whether a value counts as an extractable file.
// It must be pure: no side effects, no panics on unexpected input.
type Classifier func(v any) bool

// ErrNilClassifier indicates Extract was called without a classifier.
// This is a caller-contract violation, not a data error.
var ErrNilClassifier = errors.New("extract: nil classifier")

// Extract clones value with every classified file replaced by nil and
// returns the files keyed by identity together with every path at which
// each occurred. Paths are dot-joined segments (mapping keys and
// sequence indexes) appended to prefix; an empty prefix contributes no
// leading separator.
//
// Cycles and shared references in value are handled as described in the
// package documentation; neither raises an error. The input is never
// mutated, and file values are returned by identity, not copied.
func Extract(value any, isFile Classifier, prefix string) (clone any, files *Files, err error) {
	if isFile == nil {
		return nil, nil, ErrNilClassifier
	}
	w := &walker{
		isFile: isFile,
		files:  newFiles(),
		clones: make(map[any]any),
	}
	clone = w.walk(value, prefix, make(map[any]struct{}))
	return clone, w.files, nil
}

// walker holds the per-call side tables. The open set travels as an
// argument because it is scoped to the active recursion branch.
type walker struct {
	isFile Classifier
	files  *Files
	clones map[any]any
}

func (w *walker) walk(v any, path string, open map[any]struct{}) any {
	if w.isFile(v) {
		w.files.add(v, path)
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		return w.walkSequence(rv, identityOf(v), path, open)
	case reflect.Array:
		// Arrays are value types: storing one in an interface copies it,
		// so no instance can be shared or cyclic. Clone without memo.
		clone := make([]any, rv.Len())
		for i := range clone {
			clone[i] = w.walk(rv.Index(i).Interface(), childPath(path, strconv.Itoa(i)), open)
		}
		return clone
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return v
		}
		return w.walkMapping(rv, identityOf(v), path, open)
	default:
		// Scalar, nil, or an unrecognized kind: a leaf, returned as-is.
		return v
	}
}

func (w *walker) walkSequence(rv reflect.Value, id any, path string, open map[any]struct{}) any {
	memo, seen := w.clones[id]
	var clone []any
	if seen {
		clone = memo.([]any)
	} else {
		// Fixed-length allocation up front: assigning by index keeps the
		// slice header stable, so a self-referential child that reads the
		// memo observes this same instance.
		clone = make([]any, rv.Len())
		w.clones[id] = clone
	}

	if _, cycling := open[id]; !cycling {
		open[id] = struct{}{}
		for i := 0; i < rv.Len(); i++ {
			child := w.walk(rv.Index(i).Interface(), childPath(path, strconv.Itoa(i)), open)
			if !seen {
				clone[i] = child
			}
		}
		delete(open, id)
	}
	return clone
}

func (w *walker) walkMapping(rv reflect.Value, id any, path string, open map[any]struct{}) any {
	memo, seen := w.clones[id]
	var clone map[string]any
	if seen {
		clone = memo.(map[string]any)
	} else {
		clone = make(map[string]any, rv.Len())
		w.clones[id] = clone
	}

	if _, cycling := open[id]; !cycling {
		open[id] = struct{}{}
		for _, key := range sortedKeys(rv) {
			child := w.walk(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface(), childPath(path, key), open)
			if !seen {
				clone[key] = child
			}
		}
		delete(open, id)
	}
	return clone
}

func childPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "." + segment
}

func sortedKeys(rv reflect.Value) []string {
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}
