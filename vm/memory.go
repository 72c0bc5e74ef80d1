package vm

import "fmt"

// MemFault distinguishes the two fault shapes a Memory access can raise:
// an unmapped region, or a misaligned address for the requested
// width. Callers turn these into the width-and-direction-specific trap
// cause (instruction/load/store × access/misaligned).
type MemFault int

const (
	FaultAccess MemFault = iota
	FaultMisaligned
)

// MemError is returned by Memory operations; it never escapes to the guest
// directly, but is translated into a trap by the interpreter.
type MemError struct {
	Fault MemFault
	Addr  uint32
}

func (e *MemError) Error() string {
	switch e.Fault {
	case FaultMisaligned:
		return fmt.Sprintf("misaligned access at 0x%08x", e.Addr)
	default:
		return fmt.Sprintf("access fault at 0x%08x", e.Addr)
	}
}

// Memory is the capability the interpreter depends on. It knows nothing
// about RAM vs MMIO; a composite (MMIOBus) decides how to route an address.
type Memory interface {
	Read(addr uint32, width int) (uint32, error)
	Write(addr uint32, width int, value uint32) error
	ReadInstruction(addr uint32) (uint32, error)
}

// FlatMemory is a byte-addressable RAM region backing the assembled image,
// little-endian, with misalignment and out-of-range faults.
type FlatMemory struct {
	bytes []byte
}

// NewFlatMemory allocates a zeroed RAM region of the given size.
func NewFlatMemory(size uint32) *FlatMemory {
	if size == 0 {
		panic("vm: memory size must be non-zero")
	}
	return &FlatMemory{bytes: make([]byte, size)}
}

func (m *FlatMemory) Size() uint32 { return uint32(len(m.bytes)) }

func (m *FlatMemory) inBounds(addr uint32, width int) bool {
	end := uint64(addr) + uint64(width)
	return end <= uint64(len(m.bytes))
}

func checkAlign(addr uint32, width int) error {
	if width > 1 && addr%uint32(width) != 0 {
		return &MemError{Fault: FaultMisaligned, Addr: addr}
	}
	return nil
}

func (m *FlatMemory) Read(addr uint32, width int) (uint32, error) {
	if err := checkAlign(addr, width); err != nil {
		return 0, err
	}
	if !m.inBounds(addr, width) {
		return 0, &MemError{Fault: FaultAccess, Addr: addr}
	}
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(m.bytes[addr+uint32(i)]) << (8 * i)
	}
	return v, nil
}

func (m *FlatMemory) Write(addr uint32, width int, value uint32) error {
	if err := checkAlign(addr, width); err != nil {
		return err
	}
	if !m.inBounds(addr, width) {
		return &MemError{Fault: FaultAccess, Addr: addr}
	}
	for i := 0; i < width; i++ {
		m.bytes[addr+uint32(i)] = byte(value >> (8 * i))
	}
	return nil
}

func (m *FlatMemory) ReadInstruction(addr uint32) (uint32, error) {
	return m.Read(addr, 4)
}

// LoadBytes copies data into RAM starting at addr, outside the fault model
// (used once at program-load time, not during execution).
func (m *FlatMemory) LoadBytes(addr uint32, data []byte) error {
	if !m.inBounds(addr, len(data)) {
		return &MemError{Fault: FaultAccess, Addr: addr}
	}
	copy(m.bytes[addr:], data)
	return nil
}
