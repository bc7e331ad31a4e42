package types

// MatrixConfig represents the configuration for the WS2812 LED matrix
type MatrixConfig struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Pin       int       `json:"pin"`
	Frequency int       `json:"frequency"`
	LatchUS   int       `json:"latch_us"`
	PIO       PIOConfig `json:"pio"`
}

// PIOConfig represents the location and clock of the programmable I/O block
type PIOConfig struct {
	BaseAddr    uint64 `json:"base_addr"`
	Size        uint32 `json:"size"`
	ClockHz     uint32 `json:"clock_hz"`
	NumMachines int    `json:"num_machines"`
}

// DisplayConfig represents the configuration for the monochrome OLED
type DisplayConfig struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bus      string `json:"bus"`
	ClockKHz int    `json:"clock_khz"`
	OriginX  int    `json:"origin_x"`
	OriginY  int    `json:"origin_y"`
	Splash   string `json:"splash"`
}

// ButtonConfig binds one push button to the indicator it toggles
type ButtonConfig struct {
	Name         string `json:"name"`
	Pin          int    `json:"pin"`
	IndicatorPin int    `json:"indicator_pin"`
	Indicator    string `json:"indicator"`
}

// InputConfig represents the configuration for buttons and indicators
type InputConfig struct {
	Chip       string         `json:"chip"`
	DebounceMS int            `json:"debounce_ms"`
	Buttons    []ButtonConfig `json:"buttons"`
	// Outputs driven low at start and never toggled.
	SparePins []int `json:"spare_pins"`
}

// ConsoleConfig represents the configuration for the serial text console
type ConsoleConfig struct {
	Device  string `json:"device"`
	Baud    int    `json:"baud"`
	MaxLine int    `json:"max_line"`
	Prompt  string `json:"prompt"`
}
