// Package structpatch computes and applies structural patches between two
// instances of the same Go type. It sits between plain equality, which says
// only "different", and full serialization round trips: a patch records
// which paths changed and what they changed to, so hosts can emit change
// events for cached values, roll back transactional mutation, and write
// audit logs that show the actual difference.
//
// # Usage
//
//	// Compute the patch transforming a into b
//	p, err := structpatch.Diff(a, b)
//	if p.IsEmpty() { ... }
//
//	// Apply it
//	err = structpatch.Apply(&a, p)
//
//	// Track applied patches with rollback
//	h := structpatch.NewHistory(nil)
//	err = h.Apply(&a, p)
//	redo, err := h.Pop(&a)
//
// Patches map kinded paths (see the kpath package) to opaque encoded
// values (see the codec package). Leaf changes are stored under the
// whole-value sentinel and composed into parents by prefixed merge, so a
// field's diff never needs to know its position in the enclosing type.
//
// # Related Packages
//
//   - github.com/structpatch/go-structpatch/kpath - path syntax
//   - github.com/structpatch/go-structpatch/codec - value encodings
//   - github.com/structpatch/go-structpatch/journal - persistent history
//   - github.com/structpatch/go-structpatch/jsonpatch - RFC 6902 bridge
//   - github.com/structpatch/go-structpatch/render - log/terminal output
package structpatch
