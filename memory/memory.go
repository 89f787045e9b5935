// Package memory implements the base-relative linear byte store the
// interpreter and analyzer read and write: a flat Memory backed by one or
// more mapped Segments, little-endian, with bounds checking on every access.
package memory

import (
	"encoding/binary"
	"fmt"
)

// Perm is a small set of segment permission flags, rendered like Unix "r-x".
type Perm uint8

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
)

// String renders the permission set as "r-x"-style text, matching the loader's
// "perms" field in spec §6.
func (p Perm) String() string {
	r, w, x := byte('-'), byte('-'), byte('-')
	if p&PermRead != 0 {
		r = 'r'
	}
	if p&PermWrite != 0 {
		w = 'w'
	}
	if p&PermExec != 0 {
		x = 'x'
	}
	return string([]byte{r, w, x})
}

// Segment is one contiguous mapped region of an Image.
type Segment struct {
	Base  uint32
	Bytes []byte
	Perms Perm
	Kind  string // e.g. "raw"
	Name  string
}

// End returns the address one past the last byte of the segment.
func (s *Segment) End() uint32 {
	return s.Base + uint32(len(s.Bytes))
}

// Contains reports whether addr falls within [Base, End()).
func (s *Segment) Contains(addr uint32) bool {
	return addr >= s.Base && addr < s.End()
}

// Image is an ordered list of non-overlapping segments.
type Image struct {
	Segments []*Segment
}

// IsMapped reports whether any segment in the image covers addr.
func (img *Image) IsMapped(addr uint32) bool {
	return img.find(addr) != nil
}

func (img *Image) find(addr uint32) *Segment {
	for _, s := range img.Segments {
		if s.Contains(addr) {
			return s
		}
	}
	return nil
}

// SegmentAt returns the segment covering addr, or nil if unmapped.
func (img *Image) SegmentAt(addr uint32) *Segment {
	return img.find(addr)
}

// BusError reports an access to an address outside any mapped segment.
type BusError struct {
	Addr  uint32
	Cause string
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus error at %#08x: %s", e.Addr, e.Cause)
}

// Memory is the single mutable byte store the CPU and analyzer operate on. It
// wraps an Image so callers can ask for reads/writes by absolute address while
// the backing store addresses bytes relative to each segment's base.
type Memory struct {
	Image *Image
}

// New wraps an existing image for CPU/analyzer access.
func New(img *Image) *Memory {
	return &Memory{Image: img}
}

// NewFlat builds a single-segment r-w-x Memory of the given size starting at base,
// convenient for the interpreter front end and for tests.
func NewFlat(base uint32, size int) *Memory {
	return &Memory{Image: &Image{Segments: []*Segment{{
		Base:  base,
		Bytes: make([]byte, size),
		Perms: PermRead | PermWrite | PermExec,
		Kind:  "raw",
		Name:  "ram",
	}}}}
}

func (m *Memory) segmentFor(addr uint32, n uint32) (*Segment, uint32, error) {
	seg := m.Image.find(addr)
	if seg == nil {
		return nil, 0, &BusError{Addr: addr, Cause: "not mapped"}
	}
	off := addr - seg.Base
	if uint64(off)+uint64(n) > uint64(len(seg.Bytes)) {
		return nil, 0, &BusError{Addr: addr, Cause: "access crosses segment end"}
	}
	return seg, off, nil
}

// ReadByte reads a single byte at addr.
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	seg, off, err := m.segmentFor(addr, 1)
	if err != nil {
		return 0, err
	}
	return seg.Bytes[off], nil
}

// WriteByte writes a single byte at addr.
func (m *Memory) WriteByte(addr uint32, v byte) error {
	seg, off, err := m.segmentFor(addr, 1)
	if err != nil {
		return err
	}
	seg.Bytes[off] = v
	return nil
}

// ReadU16 reads a little-endian halfword at addr. Alignment is not enforced
// here — the executor checks alignment (spec §8: "read_u{16,32} on unaligned
// addresses is allowed by the bus itself").
func (m *Memory) ReadU16(addr uint32) (uint16, error) {
	seg, off, err := m.segmentFor(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(seg.Bytes[off:]), nil
}

// WriteU16 writes a little-endian halfword at addr.
func (m *Memory) WriteU16(addr uint32, v uint16) error {
	seg, off, err := m.segmentFor(addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(seg.Bytes[off:], v)
	return nil
}

// ReadU32 reads a little-endian word at addr.
func (m *Memory) ReadU32(addr uint32) (uint32, error) {
	seg, off, err := m.segmentFor(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(seg.Bytes[off:]), nil
}

// WriteU32 writes a little-endian word at addr.
func (m *Memory) WriteU32(addr uint32, v uint32) error {
	seg, off, err := m.segmentFor(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(seg.Bytes[off:], v)
	return nil
}
