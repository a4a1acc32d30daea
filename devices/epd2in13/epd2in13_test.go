package epd2in13

import (
	"errors"
	"testing"

	"inkclock/gpio"
)

// fakeBus records every transfer, split into command bytes and data by
// watching the dc line, and can be told to start failing.
type fakeBus struct {
	dcHigh bool
	cmds   []byte
	data   []byte
	writes int
	txErr  error
}

func (f *fakeBus) tx(p []byte) error {
	if f.txErr != nil {
		return f.txErr
	}
	f.writes++
	if f.dcHigh {
		f.data = append(f.data, p...)
	} else {
		f.cmds = append(f.cmds, p...)
	}
	return nil
}

func (f *fakeBus) countCmd(c command) int {
	n := 0
	for _, b := range f.cmds {
		if b == byte(c) {
			n++
		}
	}
	return n
}

func (f *fakeBus) reset() {
	f.cmds = nil
	f.data = nil
	f.writes = 0
}

type noopPin struct{}

func (noopPin) High() error { return nil }
func (noopPin) Low() error  { return nil }

type dcPin struct{ bus *fakeBus }

func (p dcPin) High() error { p.bus.dcHigh = true; return nil }
func (p dcPin) Low() error  { p.bus.dcHigh = false; return nil }

type idleBusy struct{}

func (idleBusy) Read() (gpio.Level, error) { return gpio.Low, nil }

func newTestDisplay() (*Display, *fakeBus) {
	bus := &fakeBus{}
	d := New(bus.tx, noopPin{}, dcPin{bus: bus}, noopPin{}, idleBusy{}, Rotate270)
	return d, bus
}

func TestPushFrameBeforeConfigure(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.PushFrame(Full); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("PushFrame(Full) = %v, want ErrNotConfigured", err)
	}
	if err := d.Sleep(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Sleep() = %v, want ErrNotConfigured", err)
	}
	if bus.writes != 0 {
		t.Errorf("%d transfers before Configure, want 0", bus.writes)
	}
}

func TestConfigure(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	for _, c := range []command{swReset, driverOutputControl, dataEntryMode, writeLutRegister} {
		if bus.countCmd(c) == 0 {
			t.Errorf("Configure sent no %#02x command", byte(c))
		}
	}
}

func TestQuickBeforeFull(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	bus.reset()

	if err := d.PushFrame(Quick); !errors.Is(err, ErrQuickBeforeFull) {
		t.Fatalf("PushFrame(Quick) = %v, want ErrQuickBeforeFull", err)
	}
	if bus.writes != 0 {
		t.Errorf("rejected quick refresh produced %d transfers, want 0", bus.writes)
	}

	if err := d.PushFrame(Full); err != nil {
		t.Fatalf("PushFrame(Full) = %v", err)
	}
	if err := d.PushFrame(Quick); err != nil {
		t.Errorf("PushFrame(Quick) after full = %v", err)
	}
}

func TestPushFrameWritesWholeBuffer(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	bus.reset()

	if err := d.PushFrame(Full); err != nil {
		t.Fatalf("PushFrame(Full) = %v", err)
	}
	if len(bus.data) != BufSize {
		t.Errorf("pushed %d data bytes, want %d", len(bus.data), BufSize)
	}
	if got := bus.countCmd(masterActivation); got != 1 {
		t.Errorf("master activation sent %d times, want 1", got)
	}
}

func TestLutProgrammedOnModeChangeOnly(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if err := d.PushFrame(Full); err != nil {
		t.Fatalf("PushFrame(Full) = %v", err)
	}

	// Configure programmed the full table, so the first quick push must
	// swap tables. The next quick pushes must not.
	bus.reset()
	if err := d.PushFrame(Quick); err != nil {
		t.Fatalf("PushFrame(Quick) = %v", err)
	}
	if got := bus.countCmd(writeLutRegister); got != 1 {
		t.Errorf("first quick push programmed LUT %d times, want 1", got)
	}

	bus.reset()
	for i := 0; i < 3; i++ {
		if err := d.PushFrame(Quick); err != nil {
			t.Fatalf("PushFrame(Quick) #%d = %v", i, err)
		}
	}
	if got := bus.countCmd(writeLutRegister); got != 0 {
		t.Errorf("repeat quick pushes programmed LUT %d times, want 0", got)
	}
}

func TestSleep(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}
	if err := d.PushFrame(Full); err != nil {
		t.Fatalf("PushFrame(Full) = %v", err)
	}
	if err := d.Sleep(); err != nil {
		t.Fatalf("Sleep() = %v", err)
	}
	if got := bus.countCmd(deepSleepMode); got != 1 {
		t.Errorf("deep sleep sent %d times, want 1", got)
	}

	// Sleeping again is a no-op, pushing is rejected.
	if err := d.Sleep(); err != nil {
		t.Errorf("second Sleep() = %v, want nil", err)
	}
	bus.reset()
	if err := d.PushFrame(Quick); !errors.Is(err, ErrAsleep) {
		t.Errorf("PushFrame after sleep = %v, want ErrAsleep", err)
	}
	if bus.writes != 0 {
		t.Errorf("push on sleeping display produced %d transfers, want 0", bus.writes)
	}

	// Configure wakes it back up.
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() after sleep = %v", err)
	}
	if err := d.PushFrame(Full); err != nil {
		t.Errorf("PushFrame after reconfigure = %v", err)
	}
}

func TestFailureIsAbsorbing(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}

	bus.txErr = errors.New("wire fell off")
	if err := d.PushFrame(Full); err == nil {
		t.Fatal("PushFrame with failing bus = nil error")
	}

	bus.txErr = nil
	if err := d.PushFrame(Full); !errors.Is(err, ErrFailed) {
		t.Errorf("PushFrame after failure = %v, want ErrFailed", err)
	}
	if err := d.Sleep(); !errors.Is(err, ErrFailed) {
		t.Errorf("Sleep after failure = %v, want ErrFailed", err)
	}

	// Only a reconfigure recovers.
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() after failure = %v", err)
	}
	if err := d.PushFrame(Full); err != nil {
		t.Errorf("PushFrame after recovery = %v", err)
	}
}

type countingReleaser struct{ n int }

func (r *countingReleaser) Release() { r.n++ }

func TestShutdownReleasesEverything(t *testing.T) {
	d, bus := newTestDisplay()
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure() = %v", err)
	}

	pins := []*countingReleaser{{}, {}, {}, {}}
	for _, p := range pins {
		d.hw.pins = append(d.hw.pins, p)
	}
	busClosed := 0
	d.hw.closeBus = func() error { busClosed++; return nil }

	// Sleep at shutdown fails, pins and bus must still go.
	bus.txErr = errors.New("wire fell off")
	d.Shutdown()

	for i, p := range pins {
		if p.n != 1 {
			t.Errorf("pin %d released %d times, want 1", i, p.n)
		}
	}
	if busClosed != 1 {
		t.Errorf("bus closed %d times, want 1", busClosed)
	}

	// Shutdown again must not double-release.
	d.Shutdown()
	for i, p := range pins {
		if p.n != 1 {
			t.Errorf("pin %d released %d times after second shutdown, want 1", i, p.n)
		}
	}
	if busClosed != 1 {
		t.Errorf("bus closed %d times after second shutdown, want 1", busClosed)
	}
}

func TestConfigNormalize(t *testing.T) {
	var c Config
	c.normalize()
	if c.DevPath != "/dev/spidev0.0" {
		t.Errorf("DevPath = %q", c.DevPath)
	}
	if c.CS != 26 || c.Busy != 24 || c.DC != 25 || c.RST != 17 {
		t.Errorf("pins = cs:%d busy:%d dc:%d rst:%d", c.CS, c.Busy, c.DC, c.RST)
	}
	if c.Rotation != Rotate270 {
		t.Errorf("Rotation = %v, want Rotate270", c.Rotation)
	}

	c = Config{DevPath: "/dev/spidev0.1", CS: 8, Rotation: Rotate90}
	c.normalize()
	if c.DevPath != "/dev/spidev0.1" || c.CS != 8 || c.Rotation != Rotate90 {
		t.Error("normalize overwrote explicit values")
	}
}
