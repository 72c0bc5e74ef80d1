package vm

import (
	"bytes"
	"io"
)

// MMIODevice is a single memory-mapped peripheral. Reads and writes are
// dispatched synchronously from within Step and must not block.
type MMIODevice interface {
	ReadMMIO(offset uint32, width int) (uint32, error)
	WriteMMIO(offset uint32, width int, value uint32) error
}

type mmioRegion struct {
	base   uint32
	size   uint32
	device MMIODevice
}

// MMIOBus composes a backing RAM (FlatMemory) with a table of MMIO regions,
// dispatching addresses that fall in a region to its device and falling
// through to RAM otherwise. This is the capability-composition alternative
// to subclassing Memory: the interpreter only ever sees the Memory
// interface, never RAM or a device directly.
type MMIOBus struct {
	ram     *FlatMemory
	regions []mmioRegion
}

// NewMMIOBus wraps ram with MMIO dispatch and installs the default
// character-sink console at ConsoleMMIOAddress.
func NewMMIOBus(ram *FlatMemory) *MMIOBus {
	bus := &MMIOBus{ram: ram}
	bus.Attach(ConsoleMMIOAddress, 4, NewConsoleDevice(nil))
	return bus
}

// Attach registers a device at [base, base+size).
func (b *MMIOBus) Attach(base, size uint32, dev MMIODevice) {
	b.regions = append(b.regions, mmioRegion{base: base, size: size, device: dev})
}

// Console returns the default console device, for hosts that want to read
// or redirect its output stream.
func (b *MMIOBus) Console() *ConsoleDevice {
	for _, r := range b.regions {
		if c, ok := r.device.(*ConsoleDevice); ok {
			return c
		}
	}
	return nil
}

func (b *MMIOBus) find(addr uint32) (mmioRegion, uint32, bool) {
	for _, r := range b.regions {
		if addr >= r.base && addr < r.base+r.size {
			return r, addr - r.base, true
		}
	}
	return mmioRegion{}, 0, false
}

func (b *MMIOBus) Read(addr uint32, width int) (uint32, error) {
	if err := checkAlign(addr, width); err != nil {
		return 0, err
	}
	if r, off, ok := b.find(addr); ok {
		v, err := r.device.ReadMMIO(off, width)
		if err != nil {
			return 0, &MemError{Fault: FaultAccess, Addr: addr}
		}
		return v, nil
	}
	return b.ram.Read(addr, width)
}

func (b *MMIOBus) Write(addr uint32, width int, value uint32) error {
	if err := checkAlign(addr, width); err != nil {
		return err
	}
	if r, off, ok := b.find(addr); ok {
		if err := r.device.WriteMMIO(off, width, value); err != nil {
			return &MemError{Fault: FaultAccess, Addr: addr}
		}
		return nil
	}
	return b.ram.Write(addr, width, value)
}

func (b *MMIOBus) ReadInstruction(addr uint32) (uint32, error) {
	if _, _, ok := b.find(addr); ok {
		return 0, &MemError{Fault: FaultAccess, Addr: addr}
	}
	return b.ram.ReadInstruction(addr)
}

// LoadBytes loads the assembled image into the backing RAM.
func (b *MMIOBus) LoadBytes(addr uint32, data []byte) error {
	return b.ram.LoadBytes(addr, data)
}

// Size returns the size of the backing RAM.
func (b *MMIOBus) Size() uint32 { return b.ram.Size() }

// ConsoleDevice is the default character-sink MMIO device: byte and word
// writes append the low byte to an output stream, reads always return 0.
type ConsoleDevice struct {
	out io.Writer
	buf bytes.Buffer
}

// NewConsoleDevice creates a console device. Output always accumulates in
// an internal buffer readable via String/Bytes, and is also written to w
// when w is non-nil.
func NewConsoleDevice(w io.Writer) *ConsoleDevice {
	return &ConsoleDevice{out: w}
}

func (c *ConsoleDevice) ReadMMIO(offset uint32, width int) (uint32, error) {
	return 0, nil
}

func (c *ConsoleDevice) WriteMMIO(offset uint32, width int, value uint32) error {
	b := byte(value)
	c.buf.WriteByte(b)
	if c.out != nil {
		_, err := c.out.Write([]byte{b})
		return err
	}
	return nil
}

// String returns everything written to the device so far.
func (c *ConsoleDevice) String() string { return c.buf.String() }

// Bytes returns the accumulated output.
func (c *ConsoleDevice) Bytes() []byte { return c.buf.Bytes() }
