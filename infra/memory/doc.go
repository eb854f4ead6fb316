// Package memory provides the slab arena backing resting order
// records. The arena grows in fixed-size blocks, recycles freed slots
// through a free list, and addresses slots with generation-checked
// handles so a released record can never be reached through an old
// reference.
//
// The package is dependency-free and wholly owned by the book's write
// path; it is not a general-purpose allocator.
package memory
