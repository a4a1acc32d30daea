package epd2in13

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"inkclock/gpio"
)

// WriteablePin is a GPIO line the driver drives.
type WriteablePin interface {
	High() error
	Low() error
}

// ReadablePin is a GPIO line the driver samples.
type ReadablePin interface {
	Read() (gpio.Level, error)
}

// Transmit sends one payload over the SPI bus.
type Transmit func(p []byte) error

type releaser interface {
	Release()
}

// hardware is one panel session: the SPI transmit function and the four
// control lines. The panel has no MISO; all transfers are write-only.
type hardware struct {
	// txLimit caps a single transfer to the spidev buffer size.
	txLimit int

	tx Transmit

	// cs is the chip select line, active low.
	cs WriteablePin
	// dc selects data (high) or command (low).
	dc WriteablePin
	// rst is the hardware reset line, active low.
	rst WriteablePin
	// busy is asserted high while the controller processes a command.
	busy ReadablePin

	// pins claimed by Open, released at shutdown. Empty when the caller
	// wired the pins itself.
	pins []releaser

	// closeBus closes the SPI port, nil when the caller owns the bus.
	closeBus func() error
}

// sendCommand transmits a command byte and any payload that follows it.
func (h *hardware) sendCommand(cmd command, data ...byte) error {
	if err := h.writeCommand(byte(cmd)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return h.sendData(data)
}

func (h *hardware) writeCommand(b byte) (err error) {
	if err := h.dc.Low(); err != nil {
		return err
	}
	if err := h.cs.Low(); err != nil {
		return err
	}
	defer func() {
		if e := h.cs.High(); err == nil {
			err = e
		}
	}()
	if err := h.tx([]byte{b}); err != nil {
		return fmt.Errorf("command %#02x: %w", b, err)
	}
	return nil
}

// sendData transmits payload bytes, batched to the transfer limit.
func (h *hardware) sendData(data []byte) (err error) {
	if err := h.dc.High(); err != nil {
		return err
	}
	if err := h.cs.Low(); err != nil {
		return err
	}
	defer func() {
		if e := h.cs.High(); err == nil {
			err = e
		}
	}()
	limit := h.txLimit
	if limit <= 0 {
		limit = len(data)
	}
	for i := 0; i < len(data); i += limit {
		j := i + limit
		if j > len(data) {
			j = len(data)
		}
		if err := h.tx(data[i:j]); err != nil {
			return fmt.Errorf("data write at %d: %w", i, err)
		}
	}
	return nil
}

// waitUntilIdle blocks until the busy line deasserts. The bound is the
// panel's own refresh timing; a stuck line is a hardware fault and hangs.
func (h *hardware) waitUntilIdle() error {
	for {
		l, err := h.busy.Read()
		if err != nil {
			return fmt.Errorf("busy read: %w", err)
		}
		if l == gpio.Low {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// reset pulses the panel's reset line, which also awakens a sleeping
// controller.
func (h *hardware) reset() error {
	if err := h.rst.High(); err != nil {
		return err
	}
	time.Sleep(200 * time.Millisecond)
	if err := h.rst.Low(); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := h.rst.High(); err != nil {
		return err
	}
	time.Sleep(200 * time.Millisecond)
	return nil
}

// errorHandler sequences bus operations, remembering the first failure so
// init and refresh sequences read as straight-line code.
type errorHandler struct {
	hw  *hardware
	err error
}

func (eh *errorHandler) sendCommand(cmd command, data ...byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.hw.sendCommand(cmd, data...)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.hw.sendData(data)
}

func (eh *errorHandler) waitUntilIdle() {
	if eh.err != nil {
		return
	}
	eh.err = eh.hw.waitUntilIdle()
}

// busSession owns the SPI port for one controller lifetime: 4MHz, mode 0
// (clock idle low, sample on leading edge), 8-bit words.
type busSession struct {
	port spi.PortCloser
	conn spi.Conn
}

func openBus(devPath string) (*busSession, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host.Init() = %w", err)
	}
	port, err := spireg.Open(devPath)
	if err != nil {
		return nil, fmt.Errorf("spireg.Open(%q) = %w", devPath, err)
	}
	c, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		connerr := fmt.Errorf("port.Connect(%v, %v, %v) = %w", 4*physic.MegaHertz, spi.Mode0, 8, err)
		if err := port.Close(); err != nil {
			return nil, fmt.Errorf("port.Close() = %w while handling %q", err, connerr)
		}
		return nil, connerr
	}
	return &busSession{port: port, conn: c}, nil
}

func (b *busSession) transmit(p []byte) error {
	return b.conn.Tx(p, nil)
}

func (b *busSession) Close() error {
	return b.port.Close()
}
