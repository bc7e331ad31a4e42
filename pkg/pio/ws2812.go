package pio

import (
	"fmt"
	"log/slog"
)

// WS2812CyclesPerBit is the number of state machine cycles per output bit
const WS2812CyclesPerBit = 10

// WS2812Program emits one bit per OUT: a 0 bit is 3 cycles high then 7
// low, a 1 bit is 8 cycles high then 2 low. Side-set drives the data pin.
//
//	.side_set 1
//	.wrap_target
//	    out x, 1   side 0 [2]
//	    jmp !x, 3  side 1 [1]
//	    jmp 0      side 1 [4]
//	    nop        side 0 [4]
//	.wrap
var WS2812Program = Program{
	Instructions: []uint16{
		0x6221, // out    x, 1   side 0 [2]
		0x1123, // jmp    !x, 3  side 1 [1]
		0x1400, // jmp    0      side 1 [4]
		0xa442, // nop           side 0 [4]
	},
	Origin:      -1,
	WrapTarget:  0,
	Wrap:        3,
	SidesetBits: 1,
}

const (
	instrSetPindirsOut = 0xe081 // set pindirs, 1
	instrSetPinsLow    = 0xe000 // set pins, 0
)

// NewWS2812 claims a free state machine, loads the WS2812 program and starts
// it driving pin at freq bits per second.
//
// Each word put to the returned state machine is shifted out MSB first, 8
// bits per word: a byte b is sent as uint32(b) << 24.
func NewWS2812(p *PIO, pin uint8, freq uint32) (*StateMachine, error) {
	sm, err := p.ClaimUnused()
	if err != nil {
		return nil, err
	}

	whole, frac, err := ClkDiv(freq*WS2812CyclesPerBit, p.ClockHz())
	if err != nil {
		sm.Unclaim()
		return nil, err
	}

	offset, err := p.AddProgram(WS2812Program)
	if err != nil {
		sm.Unclaim()
		return nil, fmt.Errorf("failed to load WS2812 program: %w", err)
	}

	sm.SetEnabled(false)
	sm.Configure(Config{
		ClkDivInt:     whole,
		ClkDivFrac:    frac,
		WrapBottom:    offset + WS2812Program.WrapTarget,
		WrapTop:       offset + WS2812Program.Wrap,
		SidesetBase:   pin,
		SidesetCount:  WS2812Program.SidesetBits,
		SetBase:       pin,
		SetCount:      1,
		OutShiftRight: false,
		Autopull:      true,
		PullThreshold: 8,
		JoinTx:        true,
	})
	sm.Exec(instrSetPindirsOut)
	sm.Exec(instrSetPinsLow)
	sm.Exec(uint16(offset)) // jmp offset
	sm.SetEnabled(true)

	slog.Debug("WS2812 state machine running",
		"sm", sm.Index(), "pin", pin, "offset", offset, "clkdiv", whole, "frac", frac)
	return sm, nil
}
