// Package extract locates file-like values inside an arbitrary, possibly
// cyclic, possibly shared-reference variables graph, replaces each
// occurrence with nil in a structural clone, and records the dotted path
// of every occurrence per distinct file.
//
// # Overview
//
// Extract walks the input recursively. A value recognized by the injected
// classifier is recorded under its identity and replaced by nil without
// further descent. Sequences (slices, arrays, file collections) and
// string-keyed mappings are cloned into freshly allocated []any and
// map[string]any containers. Any other value is a leaf and is returned
// unchanged, since scalars need no copying.
//
// # Sharing and cycles
//
// Three side tables exist per call:
//   - a clone memo keyed by container identity, so that a container
//     reachable via two routes yields one clone referenced twice;
//   - an open set of containers currently being descended on the active
//     branch, so that cyclic references terminate (the branch is truncated
//     at the already-open container, no error is raised);
//   - the ordered, identity-keyed files collection.
//
// A shared container is descended once per route so that files beneath it
// record one path per route, but only the first descent populates its
// clone. The clone memo is registered before recursing so self-referential
// children resolve to the container's own clone.
//
// # Determinism
//
// Go maps carry no key order, so mapping keys are visited in ascending
// lexicographic order. Path lists therefore come out in a reproducible
// traversal order, first occurrence first.
//
// The input graph is never mutated, and no state survives the call.
package extract
