package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Span struct {
	File  FileID
	Start uint32 // inclusive byte offset
	End   uint32 // exclusive byte offset
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Src renders the span in the compiler's "start:length:index" form. The
// index is the 0-based source index, so FileID 1 prints as 0 and the
// unknown file as -1.
func (s Span) Src() string {
	return fmt.Sprintf("%d:%d:%d", s.Start, s.Len(), int64(s.File)-1)
}

// ParseSrc parses a "start:length:index" location as emitted by the compiler.
func ParseSrc(src string) (Span, error) {
	parts := strings.Split(src, ":")
	if len(parts) != 3 {
		return Span{}, fmt.Errorf("malformed src %q: want start:length:index", src)
	}
	var nums [2]uint32
	for i, p := range parts[:2] {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Span{}, fmt.Errorf("malformed src %q: %w", src, err)
		}
		nums[i] = uint32(v)
	}
	if uint64(nums[0])+uint64(nums[1]) > math.MaxUint32 {
		return Span{}, fmt.Errorf("malformed src %q: range overflows", src)
	}
	var file FileID
	if parts[2] != "-1" {
		idx, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil || idx == math.MaxUint32 {
			return Span{}, fmt.Errorf("malformed src %q: bad source index", src)
		}
		file = FileID(idx + 1)
	}
	return Span{File: file, Start: nums[0], End: nums[0] + nums[1]}, nil
}
