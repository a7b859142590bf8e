package heap

import "fmt"

// ClassID identifies an object class in the class table. The class word of
// every allocated object holds its ClassID; ID 0 is reserved as invalid so a
// zeroed header is always recognizable as garbage.
type ClassID uint32

// Class describes a fixed-size object class.
type Class struct {
	Name string // Class name, diagnostics only
	Size uint32 // Total object size in bytes, header included, word-aligned
}

// ClassTable maps class IDs to descriptors. Classes are registered while the
// heap is being populated and are read-only for the duration of a collection
// cycle, so lookups need no synchronization.
type ClassTable struct {
	classes []Class
}

// NewClassTable creates a class table with slot 0 reserved.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: []Class{{Name: "<invalid>"}}}
}

// Register adds a class and returns its ID.
func (t *ClassTable) Register(name string, size uint32) (ClassID, error) {
	if size < MinObjectBytes {
		return 0, fmt.Errorf("class %q: size %d below minimum object size %d", name, size, MinObjectBytes)
	}
	if size%WordSize != 0 {
		return 0, fmt.Errorf("class %q: size %d not word-aligned", name, size)
	}
	t.classes = append(t.classes, Class{Name: name, Size: size})

	return ClassID(len(t.classes) - 1), nil
}

// SizeOf returns the instance size of a class.
func (t *ClassTable) SizeOf(id ClassID) uint32 {
	return t.classes[id].Size
}

// NameOf returns the class name.
func (t *ClassTable) NameOf(id ClassID) string {
	return t.classes[id].Name
}

// Valid reports whether id names a registered class.
func (t *ClassTable) Valid(id ClassID) bool {
	return id != 0 && int(id) < len(t.classes)
}
