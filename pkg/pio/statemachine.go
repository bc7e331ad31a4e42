package pio

import (
	"runtime"
)

// StateMachine represents a claimed PIO state machine
type StateMachine struct {
	pio   *PIO
	index int
}

// Config holds the register configuration for a state machine
type Config struct {
	ClkDivInt  uint16
	ClkDivFrac uint8

	WrapBottom uint8
	WrapTop    uint8

	SidesetBase  uint8
	SidesetCount uint8
	SetBase      uint8
	SetCount     uint8
	OutBase      uint8
	OutCount     uint8

	OutShiftRight bool
	Autopull      bool
	// PullThreshold is the number of bits shifted out before an autopull;
	// 32 is encoded as 0.
	PullThreshold uint8
	// JoinTx gives the TX FIFO the RX FIFO's storage
	JoinTx bool
}

// Index returns the state machine number within its block
func (sm *StateMachine) Index() int {
	return sm.index
}

func (sm *StateMachine) reg(sm0 uint32) uint32 {
	return sm0 + uint32(sm.index)*smStride
}

// Configure writes cfg to the state machine registers. The state machine
// should be disabled.
func (sm *StateMachine) Configure(cfg Config) {
	regs := sm.pio.regs

	clkdiv := uint32(cfg.ClkDivInt)<<16 | uint32(cfg.ClkDivFrac)<<8
	regs.Write32(sm.reg(regSM0CLKDIV), clkdiv)

	execctrl := uint32(cfg.WrapTop&0x1f)<<12 | uint32(cfg.WrapBottom&0x1f)<<7
	regs.Write32(sm.reg(regSM0EXECCTRL), execctrl)

	shiftctrl := uint32(1) << 18 // IN_SHIFTDIR right, reset value
	if cfg.JoinTx {
		shiftctrl |= 1 << 30
	}
	shiftctrl |= uint32(cfg.PullThreshold&0x1f) << 25
	if cfg.OutShiftRight {
		shiftctrl |= 1 << 19
	}
	if cfg.Autopull {
		shiftctrl |= 1 << 17
	}
	regs.Write32(sm.reg(regSM0SHIFTCTRL), shiftctrl)

	pinctrl := uint32(cfg.SidesetCount&0x7)<<29 |
		uint32(cfg.SetCount&0x7)<<26 |
		uint32(cfg.OutCount&0x3f)<<20 |
		uint32(cfg.SidesetBase&0x1f)<<10 |
		uint32(cfg.SetBase&0x1f)<<5 |
		uint32(cfg.OutBase&0x1f)
	regs.Write32(sm.reg(regSM0PINCTRL), pinctrl)
}

// Exec executes instr immediately on the state machine
func (sm *StateMachine) Exec(instr uint16) {
	sm.pio.regs.Write32(sm.reg(regSM0INSTR), uint32(instr))
}

// PC returns the current program counter
func (sm *StateMachine) PC() uint8 {
	return uint8(sm.pio.regs.Read32(sm.reg(regSM0ADDR)) & 0x1f)
}

// SetEnabled starts or stops the state machine
func (sm *StateMachine) SetEnabled(enabled bool) {
	p := sm.pio
	p.mu.Lock()
	defer p.mu.Unlock()

	bit := uint32(1) << sm.index
	ctrl := p.regs.Read32(regCTRL)
	if enabled {
		// Restart the clock divider with the enable so the phase is known
		ctrl |= bit | bit<<8
	} else {
		ctrl &^= bit
	}
	p.regs.Write32(regCTRL, ctrl)
}

// IsTxFull reports whether the TX FIFO has no free slot
func (sm *StateMachine) IsTxFull() bool {
	return sm.pio.regs.Read32(regFSTAT)&(1<<(fstatTxFullShift+sm.index)) != 0
}

// Put writes word to the TX FIFO, blocking while the FIFO is full.
func (sm *StateMachine) Put(word uint32) {
	for sm.IsTxFull() {
		runtime.Gosched()
	}
	sm.pio.regs.Write32(regTXF0+uint32(sm.index)*4, word)
}

// Unclaim stops the state machine and returns it to the block
func (sm *StateMachine) Unclaim() {
	sm.SetEnabled(false)

	p := sm.pio
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimed &^= 1 << sm.index
}
