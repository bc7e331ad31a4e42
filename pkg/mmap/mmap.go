package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MemoryMap represents a memory mapped register window
type MemoryMap struct {
	addr   uint64
	region []byte
}

// NewMemoryMap maps size bytes of physical memory starting at addr
func NewMemoryMap(addr uint64, size int) (*MemoryMap, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/mem: %w", err)
	}
	defer f.Close()

	region, err := unix.Mmap(
		int(f.Fd()),
		int64(addr),
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap 0x%x: %w", addr, err)
	}

	return &MemoryMap{
		addr:   addr,
		region: region,
	}, nil
}

// Close unmaps the memory region
func (m *MemoryMap) Close() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region = nil
	return err
}

// Addr returns the physical base address of the window
func (m *MemoryMap) Addr() uint64 {
	return m.addr
}

// Size returns the length of the window in bytes
func (m *MemoryMap) Size() int {
	return len(m.region)
}

// Read32 reads a 32-bit register at offset
func (m *MemoryMap) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(m.word(offset))
}

// Write32 writes a 32-bit register at offset
func (m *MemoryMap) Write32(offset uint32, value uint32) {
	atomic.StoreUint32(m.word(offset), value)
}

func (m *MemoryMap) word(offset uint32) *uint32 {
	if offset%4 != 0 || int(offset)+4 > len(m.region) {
		panic(fmt.Sprintf("mmap: register offset 0x%x outside 0x%x byte window", offset, len(m.region)))
	}
	return (*uint32)(unsafe.Pointer(&m.region[offset]))
}
