package textpos

func isHighSurrogate(u uint16) bool {
	return u >= 0xD800 && u <= 0xDBFF
}

func isLowSurrogate(u uint16) bool {
	return u >= 0xDC00 && u <= 0xDFFF
}

func isSurrogate(u uint16) bool {
	return u >= 0xD800 && u <= 0xDFFF
}

// CharacterLength returns 2 if a surrogate pair starts at pos, 1 for any
// other code unit, and 0 if pos is out of range.
func (t Text) CharacterLength(pos int) int {
	if pos < 0 || pos >= len(t) {
		return 0
	}
	if isHighSurrogate(t[pos]) && pos+1 < len(t) && isLowSurrogate(t[pos+1]) {
		return 2
	}
	return 1
}

// AdjustToBoundary clamps pos into [0, Len()] and moves it back one unit
// if it would split a surrogate pair.
func (t Text) AdjustToBoundary(pos int) int {
	if pos <= 0 || pos >= len(t) {
		return clamp(pos, 0, len(t))
	}
	if isLowSurrogate(t[pos]) && isHighSurrogate(t[pos-1]) {
		return pos - 1
	}
	return pos
}

// NextBoundary returns the character boundary after pos.
func (t Text) NextBoundary(pos int) int {
	if pos >= len(t) {
		return len(t)
	}
	pos = t.AdjustToBoundary(pos)
	return pos + t.CharacterLength(pos)
}

// PreviousBoundary returns the character boundary before pos.
func (t Text) PreviousBoundary(pos int) int {
	pos = t.AdjustToBoundary(pos)
	if pos <= 0 {
		return 0
	}
	prev := pos - 1
	if prev > 0 && isLowSurrogate(t[prev]) && isHighSurrogate(t[prev-1]) {
		return prev - 1
	}
	return prev
}
