// Package loader builds a memory.Image from a raw binary file (spec §6,
// "Binary image"): a little-endian byte stream mapped at a configurable
// base address, with an optional skip prefix and length clamp, producing a
// single r-x "raw" segment.
package loader

import (
	"fmt"

	"github.com/arnegrim/tc162/memory"
)

// Options configures how a raw file is mapped into an Image.
type Options struct {
	Base uint32 // address the first loaded byte is mapped to
	Skip int    // bytes dropped from the start of the file before loading
	Max  int    // clamp on bytes loaded after Skip, 0 means unlimited
}

// Load maps data (a whole file's contents) into a single r-x segment
// starting at opts.Base, after dropping opts.Skip leading bytes and
// clamping to opts.Max bytes if set.
func Load(data []byte, opts Options) (*memory.Memory, error) {
	if opts.Skip > len(data) {
		return nil, fmt.Errorf("loader: skip %d exceeds file size %d", opts.Skip, len(data))
	}
	payload := data[opts.Skip:]
	if opts.Max > 0 && opts.Max < len(payload) {
		payload = payload[:opts.Max]
	}

	bytes := make([]byte, len(payload))
	copy(bytes, payload)

	seg := &memory.Segment{
		Base:  opts.Base,
		Bytes: bytes,
		Perms: memory.PermRead | memory.PermExec,
		Kind:  "raw",
		Name:  "raw",
	}
	return memory.New(&memory.Image{Segments: []*memory.Segment{seg}}), nil
}
