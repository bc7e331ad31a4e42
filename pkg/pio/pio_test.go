package pio

import (
	"errors"
	"sync"
	"testing"
)

// fakeRegs is an in-memory register window. fullReads makes the TX FIFO of
// every state machine report full for that many FSTAT reads.
type fakeRegs struct {
	mu        sync.Mutex
	mem       map[uint32]uint32
	fullReads int
	fstatHits int
	writes    []regWrite
}

type regWrite struct {
	offset uint32
	value  uint32
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{mem: make(map[uint32]uint32)}
}

func (f *fakeRegs) Read32(offset uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset == regFSTAT {
		f.fstatHits++
		if f.fullReads > 0 {
			f.fullReads--
			return 0xf << fstatTxFullShift
		}
	}
	return f.mem[offset]
}

func (f *fakeRegs) Write32(offset uint32, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem[offset] = value
	f.writes = append(f.writes, regWrite{offset, value})
}

func (f *fakeRegs) writesTo(offset uint32) []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint32
	for _, w := range f.writes {
		if w.offset == offset {
			out = append(out, w.value)
		}
	}
	return out
}

func TestClaimUnused(t *testing.T) {
	regs := newFakeRegs()
	p := New(regs, 200000000, 4)

	seen := make(map[int]bool)
	for i := 0; i < 4; i++ {
		sm, err := p.ClaimUnused()
		if err != nil {
			t.Fatalf("ClaimUnused() #%d error = %v", i, err)
		}
		if seen[sm.Index()] {
			t.Errorf("state machine %d claimed twice", sm.Index())
		}
		seen[sm.Index()] = true
	}

	if _, err := p.ClaimUnused(); !errors.Is(err, ErrNoFreeStateMachine) {
		t.Errorf("ClaimUnused() on exhausted block error = %v, want %v", err, ErrNoFreeStateMachine)
	}
}

func TestClaimUnusedSkipsRunningMachines(t *testing.T) {
	regs := newFakeRegs()
	regs.mem[regCTRL] = 0x3 // SM0 and SM1 already enabled by someone else
	p := New(regs, 200000000, 4)

	sm, err := p.ClaimUnused()
	if err != nil {
		t.Fatalf("ClaimUnused() error = %v", err)
	}
	if sm.Index() != 2 {
		t.Errorf("ClaimUnused() = SM%d, want SM2", sm.Index())
	}

	sm.Unclaim()
	again, err := p.ClaimUnused()
	if err != nil {
		t.Fatalf("ClaimUnused() after Unclaim() error = %v", err)
	}
	if again.Index() != 2 {
		t.Errorf("ClaimUnused() after Unclaim() = SM%d, want SM2", again.Index())
	}
}

func TestAddProgramRelocates(t *testing.T) {
	regs := newFakeRegs()
	p := New(regs, 200000000, 4)

	offset, err := p.AddProgram(WS2812Program)
	if err != nil {
		t.Fatalf("AddProgram() error = %v", err)
	}
	if offset != InstructionMemorySize-4 {
		t.Errorf("AddProgram() offset = %d, want %d", offset, InstructionMemorySize-4)
	}

	want := []uint32{
		0x6221,
		0x1123 + uint32(offset),
		0x1400 + uint32(offset),
		0xa442,
	}
	for i, w := range want {
		got := regs.mem[regINSTRMEM0+uint32(int(offset)+i)*4]
		if got != w {
			t.Errorf("instruction %d = 0x%04x, want 0x%04x", i, got, w)
		}
	}

	second, err := p.AddProgram(WS2812Program)
	if err != nil {
		t.Fatalf("second AddProgram() error = %v", err)
	}
	if second == offset {
		t.Errorf("second AddProgram() reused offset %d", offset)
	}
}

func TestAddProgramNoSpace(t *testing.T) {
	p := New(newFakeRegs(), 200000000, 4)

	big := Program{Instructions: make([]uint16, 30), Origin: -1}
	if _, err := p.AddProgram(big); err != nil {
		t.Fatalf("AddProgram() error = %v", err)
	}
	if _, err := p.AddProgram(WS2812Program); !errors.Is(err, ErrNoProgramSpace) {
		t.Errorf("AddProgram() error = %v, want %v", err, ErrNoProgramSpace)
	}
}

func TestClkDiv(t *testing.T) {
	tests := []struct {
		name      string
		freq      uint32
		clockHz   uint32
		wantWhole uint16
		wantFrac  uint8
		wantErr   bool
	}{
		{"ws2812 on 200MHz", 8000000, 200000000, 25, 0, false},
		{"ws2812 on 125MHz", 8000000, 125000000, 15, 160, false},
		{"unity", 1000, 1000, 1, 0, false},
		{"faster than clock", 2000, 1000, 0, 0, true},
		{"zero", 0, 1000, 0, 0, true},
		{"too slow", 1, 200000000, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			whole, frac, err := ClkDiv(tt.freq, tt.clockHz)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ClkDiv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if whole != tt.wantWhole || frac != tt.wantFrac {
				t.Errorf("ClkDiv() = %d+%d/256, want %d+%d/256", whole, frac, tt.wantWhole, tt.wantFrac)
			}
		})
	}
}

func TestNewWS2812(t *testing.T) {
	regs := newFakeRegs()
	p := New(regs, 200000000, 4)

	sm, err := NewWS2812(p, 7, 800000)
	if err != nil {
		t.Fatalf("NewWS2812() error = %v", err)
	}

	if got := regs.mem[sm.reg(regSM0CLKDIV)]; got != 25<<16 {
		t.Errorf("CLKDIV = 0x%08x, want 0x%08x", got, 25<<16)
	}

	shift := regs.mem[sm.reg(regSM0SHIFTCTRL)]
	if shift&(1<<19) != 0 {
		t.Error("OUT shifts right, want left (MSB first)")
	}
	if shift&(1<<17) == 0 {
		t.Error("autopull disabled")
	}
	if got := (shift >> 25) & 0x1f; got != 8 {
		t.Errorf("pull threshold = %d, want 8", got)
	}

	pinctrl := regs.mem[sm.reg(regSM0PINCTRL)]
	if got := (pinctrl >> 10) & 0x1f; got != 7 {
		t.Errorf("side-set base = %d, want 7", got)
	}
	if got := pinctrl >> 29; got != 1 {
		t.Errorf("side-set count = %d, want 1", got)
	}

	execs := regs.writesTo(sm.reg(regSM0INSTR))
	if len(execs) != 3 || execs[0] != instrSetPindirsOut {
		t.Errorf("executed instructions = %#v", execs)
	}

	if regs.mem[regCTRL]&(1<<sm.Index()) == 0 {
		t.Error("state machine not enabled")
	}
}

func TestNewWS2812NoFreeStateMachine(t *testing.T) {
	regs := newFakeRegs()
	regs.mem[regCTRL] = 0xf
	p := New(regs, 200000000, 4)

	if _, err := NewWS2812(p, 7, 800000); !errors.Is(err, ErrNoFreeStateMachine) {
		t.Errorf("NewWS2812() error = %v, want %v", err, ErrNoFreeStateMachine)
	}
}

func TestPutBlocksWhileFull(t *testing.T) {
	regs := newFakeRegs()
	p := New(regs, 200000000, 4)
	sm, err := p.ClaimUnused()
	if err != nil {
		t.Fatal(err)
	}

	regs.fullReads = 5
	sm.Put(0xAB000000)

	if regs.fstatHits != 6 {
		t.Errorf("FSTAT read %d times, want 6", regs.fstatHits)
	}
	got := regs.writesTo(regTXF0 + uint32(sm.Index())*4)
	if len(got) != 1 || got[0] != 0xAB000000 {
		t.Errorf("TX FIFO writes = %#v", got)
	}
}

func TestCloseDisablesClaimed(t *testing.T) {
	regs := newFakeRegs()
	regs.mem[regCTRL] = 0x8 // SM3 belongs to someone else
	p := New(regs, 200000000, 4)

	sm, err := NewWS2812(p, 7, 800000)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	ctrl := regs.mem[regCTRL]
	if ctrl&(1<<sm.Index()) != 0 {
		t.Error("claimed state machine still enabled after Close()")
	}
	if ctrl&0x8 == 0 {
		t.Error("Close() disabled a state machine it did not claim")
	}
}
