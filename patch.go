package imagecompleter

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Priority is the Priority-BP scheduling score, in (0, 1] once assigned;
// PriorityMin marks a node with no viable confusion set yet computed.
type Priority float32

const PriorityMin Priority = 0

// Patch is a solved label: a source rectangle copied to a destination
// rectangle, carrying the priority its owning node had when solved. The
// compositor consumes a priority-sorted slice of these.
type Patch struct {
	SrcLeft, SrcTop   int32
	DestLeft, DestTop int32
	Priority          float32
}

// WritePatches writes the binary patch stream: a 32-bit count followed
// by that many fixed 20-byte records, always little-endian regardless of
// the host (the original format was native-endian and unspecified; see
// DESIGN.md for the portability tradeoff this fixes).
func WritePatches(w io.Writer, patches []Patch) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(patches))); err != nil {
		return fmt.Errorf("imagecompleter: write patch count: %w", err)
	}
	for i, p := range patches {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("imagecompleter: write patch %d: %w", i, err)
		}
	}
	return nil
}

// ReadPatches is the inverse of WritePatches.
func ReadPatches(r io.Reader) ([]Patch, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("imagecompleter: read patch count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("imagecompleter: negative patch count %d: %w", count, ErrTruncatedPatchStream)
	}
	patches := make([]Patch, count)
	for i := range patches {
		if err := binary.Read(r, binary.LittleEndian, &patches[i]); err != nil {
			return nil, fmt.Errorf("imagecompleter: read patch %d: %w", i, ErrTruncatedPatchStream)
		}
	}
	return patches, nil
}
