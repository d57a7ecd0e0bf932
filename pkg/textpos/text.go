// Package textpos provides the UTF-16 text and range primitives shared by
// every position-sensitive package in annotext.
//
// Positions are indices into UTF-16 code units, the unit that browser
// selections and persisted mark offsets are expressed in. A Text value is
// the UTF-16 encoding of a document and is never mutated after creation.
package textpos

import (
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Text is a UTF-16 encoded string. Length and slicing agree with positions.
type Text []uint16

// FromString encodes s as UTF-16.
func FromString(s string) Text {
	return Text(utf16.Encode([]rune(s)))
}

// String decodes the text back to a Go string.
// Unpaired surrogates decode to U+FFFD.
func (t Text) String() string {
	return string(utf16.Decode(t))
}

// Len returns the length in UTF-16 code units.
func (t Text) Len() int {
	return len(t)
}

// Slice returns t[start:end] with both bounds clamped to [0, Len()].
// An inverted range yields an empty Text.
func (t Text) Slice(start, end int) Text {
	start = clamp(start, 0, len(t))
	end = clamp(end, 0, len(t))
	if end <= start {
		return Text{}
	}
	return t[start:end]
}

// Substring is Slice followed by String.
func (t Text) Substring(start, end int) string {
	return t.Slice(start, end).String()
}

// At returns the code unit at i, or 0 if i is out of range.
func (t Text) At(i int) uint16 {
	if i < 0 || i >= len(t) {
		return 0
	}
	return t[i]
}

// Equal reports whether two texts hold the same code units.
func (t Text) Equal(other Text) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// IsSpaceAt reports whether the code unit at i is whitespace.
// Out-of-range indices and surrogate halves are not whitespace.
func (t Text) IsSpaceAt(i int) bool {
	if i < 0 || i >= len(t) {
		return false
	}
	return IsSpace(t[i])
}

// IsSpace reports whether a single code unit is whitespace in the sense of
// the JavaScript \s class.
func IsSpace(u uint16) bool {
	if isSurrogate(u) {
		return false
	}
	r := rune(u)
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// ByteIndex translates UTF-8 byte offsets of a string into UTF-16 offsets.
type ByteIndex struct {
	// offsets[b] is the UTF-16 offset of byte b; len(offsets) == len(src)+1.
	offsets []int
}

// NewByteIndex builds the byte-to-UTF-16 offset table for src.
func NewByteIndex(src []byte) *ByteIndex {
	offsets := make([]int, len(src)+1)
	units := 0
	for b := 0; b < len(src); {
		r, size := utf8.DecodeRune(src[b:])
		for k := 0; k < size; k++ {
			offsets[b+k] = units
		}
		if utf16.RuneLen(r) == 2 {
			units += 2
		} else {
			units++
		}
		b += size
	}
	offsets[len(src)] = units
	return &ByteIndex{offsets: offsets}
}

// UTF16 returns the UTF-16 offset of a byte offset, clamped to the source.
// A byte offset inside a multi-byte rune maps to the start of that rune.
func (idx *ByteIndex) UTF16(byteOffset int) int {
	return idx.offsets[clamp(byteOffset, 0, len(idx.offsets)-1)]
}

// Range translates a byte range into a UTF-16 range.
func (idx *ByteIndex) Range(startByte, endByte int) Range {
	return Range{Start: idx.UTF16(startByte), End: idx.UTF16(endByte)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
