//go:build linux

package jsonfield

import (
	"testing"

	"golang.org/x/sys/unix"
)

// TestExtractNeverReadsPastLength maps two adjacent pages, revokes all
// access to the second one, and places a truncated JSON document at the
// end of the first page so that any over-read by one byte would fault.
// This is the bounds-safety property every read in this package must
// uphold: length, never len(buf), is the only thing that bounds a scan.
func TestExtractNeverReadsPastLength(t *testing.T) {
	pageSize := unix.Getpagesize()

	region, err := unix.Mmap(-1, 0, pageSize*2, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		t.Fatalf("mmap failed: %v", err)
	}
	defer unix.Munmap(region)

	if err := unix.Mprotect(region[pageSize:], unix.PROT_NONE); err != nil {
		t.Fatalf("mprotect failed: %v", err)
	}

	cases := []struct {
		name string
		json string
		key  string
	}{
		{"truncated object", `{"year": 1984, "name": "The Matrix"`, "name"},
		{"truncated string value", `{"name": "The Matrix`, "name"},
		{"truncated array", `{"tags": ["a", "b"`, "tags"},
		{"truncated key", `{"na`, "name"},
		{"missing field near end", `{"a": 1, "b": 2}`, "z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			firstPage := region[:pageSize]
			start := pageSize - len(tc.json)
			copy(firstPage[start:], tc.json)

			// Extract must only ever look at the declared length, never at
			// what happens to follow it in memory - if it strays onto the
			// protected page this test crashes with SIGSEGV instead of
			// failing cleanly, which is the point.
			Extract(firstPage[start:pageSize], len(tc.json), []byte(tc.key))
		})
	}
}
