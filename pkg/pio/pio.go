// Package pio drives a programmable I/O block through its memory-mapped
// registers. The register layout is the RP2040 one, which RP1 keeps.
//
// Pin multiplexing is not handled here: the output pin must already be
// routed to the PIO function (device tree overlay or pinctrl).
package pio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fkcurrie/glyphboard/internal/types"
	"github.com/fkcurrie/glyphboard/pkg/mmap"
)

const (
	// Block registers
	regCTRL      = 0x000
	regFSTAT     = 0x004
	regTXF0      = 0x010
	regINSTRMEM0 = 0x048

	// State machine registers, SM0 addresses
	regSM0CLKDIV    = 0x0c8
	regSM0EXECCTRL  = 0x0cc
	regSM0SHIFTCTRL = 0x0d0
	regSM0ADDR      = 0x0d4
	regSM0INSTR     = 0x0d8
	regSM0PINCTRL   = 0x0dc

	// Distance between consecutive state machine register banks
	smStride = 0x018

	// Number of instruction memory slots
	InstructionMemorySize = 32

	fstatTxFullShift = 16
)

var (
	// ErrNoFreeStateMachine is returned when every state machine is claimed.
	ErrNoFreeStateMachine = errors.New("pio: no free state machine")
	// ErrNoProgramSpace is returned when a program does not fit in
	// instruction memory.
	ErrNoProgramSpace = errors.New("pio: not enough instruction memory")
)

// Registers is a 32-bit register window
type Registers interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

// PIO represents one PIO block
type PIO struct {
	mu      sync.Mutex
	regs    Registers
	mem     io.Closer
	clockHz uint32
	numSM   int
	claimed uint32
	used    uint32
}

// Open maps the PIO block described by cfg
func Open(cfg types.PIOConfig) (*PIO, error) {
	mem, err := mmap.NewMemoryMap(cfg.BaseAddr, int(cfg.Size))
	if err != nil {
		return nil, fmt.Errorf("failed to map PIO memory: %w", err)
	}

	p := New(mem, cfg.ClockHz, cfg.NumMachines)
	p.mem = mem
	return p, nil
}

// New creates a PIO on an existing register window
func New(regs Registers, clockHz uint32, numSM int) *PIO {
	return &PIO{
		regs:    regs,
		clockHz: clockHz,
		numSM:   numSM,
	}
}

// ClockHz returns the clock the state machines divide down from
func (p *PIO) ClockHz() uint32 {
	return p.clockHz
}

// Close disables the state machines claimed through p and releases the
// register window.
func (p *PIO) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctrl := p.regs.Read32(regCTRL)
	p.regs.Write32(regCTRL, ctrl&^p.claimed)
	p.claimed = 0

	if p.mem != nil {
		err := p.mem.Close()
		p.mem = nil
		return err
	}
	return nil
}

// ClaimUnused claims a state machine that is neither claimed through p nor
// already running.
func (p *PIO) ClaimUnused() (*StateMachine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	enabled := p.regs.Read32(regCTRL) & 0xf
	for i := 0; i < p.numSM; i++ {
		bit := uint32(1) << i
		if p.claimed&bit != 0 || enabled&bit != 0 {
			continue
		}
		p.claimed |= bit
		slog.Debug("claimed PIO state machine", "sm", i)
		return &StateMachine{pio: p, index: i}, nil
	}
	return nil, ErrNoFreeStateMachine
}

// AddProgram loads prog into instruction memory and returns its offset.
// Jump targets are relocated to the load offset.
func (p *PIO) AddProgram(prog Program) (uint8, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(prog.Instructions)
	if n == 0 || n > InstructionMemorySize {
		return 0, ErrNoProgramSpace
	}
	mask := uint32(1)<<n - 1

	offset := -1
	if prog.Origin >= 0 {
		if prog.Origin+n <= InstructionMemorySize && p.used&(mask<<prog.Origin) == 0 {
			offset = prog.Origin
		}
	} else {
		// Highest free slot first, like the SDK
		for o := InstructionMemorySize - n; o >= 0; o-- {
			if p.used&(mask<<o) == 0 {
				offset = o
				break
			}
		}
	}
	if offset < 0 {
		return 0, ErrNoProgramSpace
	}

	for i, instr := range prog.Instructions {
		p.regs.Write32(regINSTRMEM0+uint32(i+offset)*4, uint32(relocate(instr, uint8(offset))))
	}
	p.used |= mask << offset

	slog.Debug("loaded PIO program", "offset", offset, "length", n)
	return uint8(offset), nil
}

// relocate adds offset to the target of JMP instructions
func relocate(instr uint16, offset uint8) uint16 {
	if instr&0xe000 != 0 {
		return instr
	}
	addr := (instr + uint16(offset)) & 0x1f
	return instr&^0x1f | addr
}

// Program is an assembled PIO program
type Program struct {
	Instructions []uint16
	// Origin is the fixed load address, or -1 to load anywhere
	Origin     int
	WrapTarget uint8
	Wrap       uint8
	// SidesetBits is the number of delay bits used for side-set
	SidesetBits uint8
}

// ClkDiv returns the integer and fractional clock divider that runs a state
// machine at freq from clockHz.
func ClkDiv(freq, clockHz uint32) (whole uint16, frac uint8, err error) {
	if freq == 0 {
		return 0, 0, fmt.Errorf("pio: zero frequency")
	}
	div := uint64(clockHz) * 256 / uint64(freq)
	if div < 256 || div>>8 > 0xffff {
		return 0, 0, fmt.Errorf("pio: %d Hz not reachable from %d Hz", freq, clockHz)
	}
	return uint16(div >> 8), uint8(div & 0xff), nil
}
