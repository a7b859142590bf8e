package heap

// Object header layout: two words at the object's address. Word 0 is the
// mark word, word 1 the class word. The mark word's low two bits are a tag:
//
//	0b01  neutral prototype — the object is at its final address
//	0b11  forwarded — the upper bits are the destination byte offset
//
// A forwarded destination is word-aligned, so its low two bits are zero and
// the whole 32-bit offset coexists with the tag. This is why the heap is
// bounded at 4GiB.
const (
	markTagMask      uint32 = 0b11
	markTagNeutral   uint32 = 0b01
	markTagForwarded uint32 = 0b11

	// MarkPrototype is the canonical mark word of an object that is not
	// forwarded, including a just-relocated one.
	MarkPrototype = markTagNeutral
)

// MarkWord returns the raw mark word of the object at obj.
func (h *Heap) MarkWord(obj Address) uint32 {
	return h.word(obj)
}

// SetMarkWord overwrites the raw mark word of the object at obj.
func (h *Heap) SetMarkWord(obj Address, mark uint32) {
	h.setWord(obj, mark)
}

// InitMark reinstalls the prototype mark word, erasing any forwarding
// state. The relocator calls this on the destination copy of every moved
// object.
func (h *Heap) InitMark(obj Address) {
	h.setWord(obj, MarkPrototype)
}

// Forwardee returns the destination address recorded in the object's mark
// word. The bool result is false when the object is stationary.
func (h *Heap) Forwardee(obj Address) (Address, bool) {
	mark := h.word(obj)
	if mark&markTagMask != markTagForwarded {
		return 0, false
	}

	return Address(mark &^ markTagMask), true
}

// SetForwardee records dst as the object's destination. Called by the
// forwarding phase before compaction starts.
func (h *Heap) SetForwardee(obj, dst Address) {
	if !dst.Aligned() {
		fatalf("forwardee %#x for object %#x not word-aligned", dst, obj)
	}
	h.setWord(obj, uint32(dst)|markTagForwarded)
}

// ClassOf returns the class word of the object at obj.
func (h *Heap) ClassOf(obj Address) ClassID {
	return ClassID(h.word(obj + WordSize))
}

// SizeOf returns the full byte extent of the object at obj, header
// included, as recorded by its class.
func (h *Heap) SizeOf(obj Address) uint32 {
	return h.classes.SizeOf(h.ClassOf(obj))
}
