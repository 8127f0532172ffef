package extract

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hyperse-io/apollo-upload-client/internal/upload"
)

// samePointer reports whether two container values are the same instance.
func samePointer(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// setPath writes v at a dotted path inside a clone built from
// map[string]any and []any containers. Used to replay recorded paths.
func setPath(t *testing.T, root any, path string, v any) {
	t.Helper()
	segments := strings.Split(path, ".")
	current := root
	for _, seg := range segments[:len(segments)-1] {
		switch c := current.(type) {
		case map[string]any:
			current = c[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			require.NoError(t, err)
			current = c[i]
		default:
			t.Fatalf("path %q traverses non-container %T", path, current)
		}
	}
	last := segments[len(segments)-1]
	switch c := current.(type) {
	case map[string]any:
		c[last] = v
	case []any:
		i, err := strconv.Atoi(last)
		require.NoError(t, err)
		c[i] = v
	default:
		t.Fatalf("path %q ends in non-container %T", path, current)
	}
}

var uploadsByIdentity = cmp.Comparer(func(a, b *upload.Upload) bool { return a == b })

func TestExtract_NoFiles_DeepCopy(t *testing.T) {
	input := map[string]any{
		"a": "x",
		"b": []any{1, 2.5, true, nil},
		"c": map[string]any{"nested": "y"},
	}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, 0, files.Len())

	if diff := cmp.Diff(input, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	// Containers are newly allocated, not shared with the input.
	if samePointer(input, clone) {
		t.Fatal("clone shares the input mapping instance")
	}
	if samePointer(input["b"], clone.(map[string]any)["b"]) {
		t.Fatal("clone shares the input sequence instance")
	}
	if samePointer(input["c"], clone.(map[string]any)["c"]) {
		t.Fatal("clone shares the nested mapping instance")
	}
}

func TestExtract_Scenario_ObjectAndList(t *testing.T) {
	file1 := upload.New("one.txt", strings.NewReader("1"))
	file2 := upload.New("two.txt", strings.NewReader("2"))
	input := map[string]any{
		"a": file1,
		"b": []any{file1, file2},
	}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	wantClone := map[string]any{"a": nil, "b": []any{nil, nil}}
	if diff := cmp.Diff(wantClone, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	wantEntries := []Entry{
		{File: file1, Paths: []string{"a", "b.0"}},
		{File: file2, Paths: []string{"b.1"}},
	}
	if diff := cmp.Diff(wantEntries, files.Entries(), uploadsByIdentity); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_ScalarLeaves_Unchanged(t *testing.T) {
	input := map[string]any{"a": nil, "c": 42, "d": "x"}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, 0, files.Len())
	if diff := cmp.Diff(input, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_RootIsFile(t *testing.T) {
	file := upload.New("root.bin", strings.NewReader("r"))

	clone, files, err := Extract(file, upload.IsExtractable, "root")
	require.NoError(t, err)
	require.Nil(t, clone)

	wantEntries := []Entry{{File: file, Paths: []string{"root"}}}
	if diff := cmp.Diff(wantEntries, files.Entries(), uploadsByIdentity); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_ClassifierAlwaysFalse(t *testing.T) {
	file := upload.New("f.txt", strings.NewReader("f"))
	input := map[string]any{"a": file, "b": []any{file}}

	clone, files, err := Extract(input, func(any) bool { return false }, "")
	require.NoError(t, err)
	require.Equal(t, 0, files.Len())

	got := clone.(map[string]any)
	if got["a"] != file {
		t.Fatalf("expected file leaf returned by identity, got %v", got["a"])
	}
	if got["b"].([]any)[0] != file {
		t.Fatalf("expected file leaf returned by identity inside sequence")
	}
}

func TestExtract_NilClassifier(t *testing.T) {
	_, _, err := Extract(map[string]any{}, nil, "")
	require.ErrorIs(t, err, ErrNilClassifier)
}

func TestExtract_FileList_AsSequence(t *testing.T) {
	file1 := upload.New("a.txt", strings.NewReader("a"))
	file2 := upload.New("b.txt", strings.NewReader("b"))
	input := map[string]any{"docs": upload.FileList{file1, file2}}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	wantClone := map[string]any{"docs": []any{nil, nil}}
	if diff := cmp.Diff(wantClone, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"docs.0"}, files.Paths(file1))
	require.Equal(t, []string{"docs.1"}, files.Paths(file2))
}

func TestExtract_PathPrefix(t *testing.T) {
	file := upload.New("f.txt", strings.NewReader("f"))
	input := map[string]any{"variables": map[string]any{"file": file}}

	_, files, err := Extract(input, upload.IsExtractable, "operations")
	require.NoError(t, err)
	require.Equal(t, []string{"operations.variables.file"}, files.Paths(file))
}

func TestExtract_PathOrdering_FirstSeenFirst(t *testing.T) {
	file := upload.New("f.txt", strings.NewReader("f"))
	input := map[string]any{
		"a": file,
		"z": []any{file, file},
	}

	_, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "z.0", "z.1"}, files.Paths(file))
}

func TestExtract_IdenticalContent_DistinctIdentity(t *testing.T) {
	file1 := upload.New("same.txt", strings.NewReader("same"))
	file2 := upload.New("same.txt", strings.NewReader("same"))
	input := []any{file1, file2}

	_, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, 2, files.Len())
	require.Equal(t, []string{"0"}, files.Paths(file1))
	require.Equal(t, []string{"1"}, files.Paths(file2))
}

func TestExtract_SharedContainer_CloneReferenceEqual(t *testing.T) {
	shared := map[string]any{"v": 1}
	input := map[string]any{"x": shared, "y": shared}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, 0, files.Len())

	got := clone.(map[string]any)
	if !samePointer(got["x"], got["y"]) {
		t.Fatal("shared container cloned into two distinct instances")
	}
	if samePointer(got["x"], shared) {
		t.Fatal("shared container clone is the original instance")
	}
}

// A file beneath a doubly-referenced container records one path per
// route, while the container itself is cloned exactly once.
func TestExtract_SharedContainer_PathsPerRoute(t *testing.T) {
	file := upload.New("f.txt", strings.NewReader("f"))
	shared := map[string]any{"file": file}
	input := map[string]any{"x": shared, "y": shared}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	require.Equal(t, []string{"x.file", "y.file"}, files.Paths(file))

	got := clone.(map[string]any)
	if !samePointer(got["x"], got["y"]) {
		t.Fatal("shared container cloned into two distinct instances")
	}
	require.Nil(t, got["x"].(map[string]any)["file"])
}

func TestExtract_CyclicMapping_Terminates(t *testing.T) {
	input := map[string]any{"v": 1}
	input["self"] = input

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, 0, files.Len())

	got := clone.(map[string]any)
	require.Equal(t, 1, got["v"])
	if !samePointer(got["self"], got) {
		t.Fatal("cyclic reference not wired back to the clone itself")
	}
}

func TestExtract_CyclicSequence_Terminates(t *testing.T) {
	input := make([]any, 2)
	input[0] = "head"
	input[1] = input

	clone, _, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	got := clone.([]any)
	require.Equal(t, "head", got[0])
	if !samePointer(got[1], got) {
		t.Fatal("cyclic reference not wired back to the clone itself")
	}
}

func TestExtract_Array_ClonedAsSequence(t *testing.T) {
	file := upload.New("f.txt", strings.NewReader("f"))
	input := map[string]any{"arr": [2]any{file, "x"}}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	wantClone := map[string]any{"arr": []any{nil, "x"}}
	if diff := cmp.Diff(wantClone, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"arr.0"}, files.Paths(file))
}

func TestExtract_UnrecognizedLeaf_Unchanged(t *testing.T) {
	type opaque struct{ n int }
	leaf := opaque{n: 7}
	input := map[string]any{"leaf": leaf, "intkeys": map[int]any{1: "x"}}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)
	require.Equal(t, 0, files.Len())

	got := clone.(map[string]any)
	require.Equal(t, leaf, got["leaf"])
	// Non-string-keyed mappings are leaves: returned by reference.
	if !samePointer(input["intkeys"], got["intkeys"]) {
		t.Fatal("unrecognized container kind was cloned instead of passed through")
	}
}

// Replaying every recorded path over the clone reconstructs the input.
func TestExtract_InverseReconstruction(t *testing.T) {
	file1 := upload.New("one.txt", strings.NewReader("1"))
	file2 := upload.New("two.txt", strings.NewReader("2"))
	input := map[string]any{
		"a": file1,
		"b": []any{file1, map[string]any{"deep": file2}},
		"c": "scalar",
	}

	clone, files, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	for _, entry := range files.Entries() {
		for _, path := range entry.Paths {
			setPath(t, clone, path, entry.File)
		}
	}
	if diff := cmp.Diff(input, clone, uploadsByIdentity); diff != "" {
		t.Fatalf("reconstruction mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_InputNotMutated(t *testing.T) {
	file := upload.New("f.txt", strings.NewReader("f"))
	inner := []any{file}
	input := map[string]any{"files": inner}

	_, _, err := Extract(input, upload.IsExtractable, "")
	require.NoError(t, err)

	if inner[0] != file {
		t.Fatal("input sequence was mutated")
	}
	if input["files"] == nil {
		t.Fatal("input mapping was mutated")
	}
}
