package epd2in13

// Waveform lookup tables for the SSD1675 controller, 70 bytes each:
// five 7-byte voltage-select groups (BB, BW, WB, WW, VCOM) followed by
// seven 5-byte timing groups (TP A~D, RP).
//
// The full table rewrites every pixel through the complete waveform and
// clears accumulated ghosting. The quick table only drives changed pixels
// and is valid once a full refresh has established the panel state.

var lutFull = [70]byte{
	0x80, 0x60, 0x40, 0x00, 0x00, 0x00, 0x00, // LUT0: BB
	0x10, 0x60, 0x20, 0x00, 0x00, 0x00, 0x00, // LUT1: BW
	0x80, 0x60, 0x40, 0x00, 0x00, 0x00, 0x00, // LUT2: WB
	0x10, 0x60, 0x20, 0x00, 0x00, 0x00, 0x00, // LUT3: WW
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // LUT4: VCOM

	0x03, 0x03, 0x00, 0x00, 0x02, // TP0 A~D RP0
	0x09, 0x09, 0x00, 0x00, 0x02, // TP1 A~D RP1
	0x03, 0x03, 0x00, 0x00, 0x02, // TP2 A~D RP2
	0x00, 0x00, 0x00, 0x00, 0x00, // TP3 A~D RP3
	0x00, 0x00, 0x00, 0x00, 0x00, // TP4 A~D RP4
	0x00, 0x00, 0x00, 0x00, 0x00, // TP5 A~D RP5
	0x00, 0x00, 0x00, 0x00, 0x00, // TP6 A~D RP6
}

var lutQuick = [70]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // LUT0: BB
	0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // LUT1: BW
	0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // LUT2: WB
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // LUT3: WW
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // LUT4: VCOM

	0x0A, 0x00, 0x00, 0x00, 0x00, // TP0 A~D RP0
	0x00, 0x00, 0x00, 0x00, 0x00, // TP1 A~D RP1
	0x00, 0x00, 0x00, 0x00, 0x00, // TP2 A~D RP2
	0x00, 0x00, 0x00, 0x00, 0x00, // TP3 A~D RP3
	0x00, 0x00, 0x00, 0x00, 0x00, // TP4 A~D RP4
	0x00, 0x00, 0x00, 0x00, 0x00, // TP5 A~D RP5
	0x00, 0x00, 0x00, 0x00, 0x00, // TP6 A~D RP6
}
