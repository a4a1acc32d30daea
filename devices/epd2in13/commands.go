package epd2in13

// See golang.org/x/tools/cmd/stringer
//go:generate stringer -type=command
type command byte

const (
	driverOutputControl         command = 0x01
	gateDrivingVoltageControl   command = 0x03
	sourceDrivingVoltageControl command = 0x04
	deepSleepMode               command = 0x10
	dataEntryMode               command = 0x11
	swReset                     command = 0x12
	tempSensorControl           command = 0x18
	masterActivation            command = 0x20
	displayUpdateControl1       command = 0x21
	displayUpdateControl2       command = 0x22
	writeRAMBW                  command = 0x24
	writeVcomRegister           command = 0x2C
	statusRead                  command = 0x2F
	writeLutRegister            command = 0x32
	setDummyLinePeriod          command = 0x3A
	setGateTime                 command = 0x3B
	borderWaveformControl       command = 0x3C
	setRamXStartEnd             command = 0x44
	setRamYStartEnd             command = 0x45
	setRamXAddressCtr           command = 0x4E
	setRamYAddressCtr           command = 0x4F
	setAnalogBlockControl       command = 0x74
	setDigitalBlockControl      command = 0x7E
)

// Display update control 2 arguments: which stages master activation runs.
const (
	updateSequenceFull  byte = 0xC7
	updateSequenceQuick byte = 0x0F
)
