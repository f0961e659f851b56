//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	serial *uartSerial
	clock  *tinyGoClock
}

// New returns the RP2-class bare-metal HAL.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1, shared by the monitor
// console and the debug path.
func New(cfg Config) HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    &pinLED{pin: ledPin},
		serial: &uartSerial{uart: uart},
		clock:  newTinyGoClock(),
	}
}

func (h *tinyGoHAL) Logger() Logger            { return h.logger }
func (h *tinyGoHAL) LED() LED                  { return h.led }
func (h *tinyGoHAL) Serial() Serial            { return h.serial }
func (h *tinyGoHAL) Clock() Clock              { return h.clock }
func (h *tinyGoHAL) Framebuffer() *Framebuffer { return nil }

func (h *tinyGoHAL) Rest() { time.Sleep(100 * time.Microsecond) }

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type uartSerial struct {
	uart *machine.UART
}

func (s *uartSerial) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if b, err := s.uart.ReadByte(); err == nil {
			p[0] = b
			return 1, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *uartSerial) Write(p []byte) (int, error) {
	for i := 0; i < len(p); i++ {
		s.uart.WriteByte(p[i])
	}
	return len(p), nil
}

type tinyGoClock struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoClock() *tinyGoClock {
	c := &tinyGoClock{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			c.seq++
			select {
			case c.ch <- c.seq:
			default:
			}
		}
	}()
	return c
}

func (c *tinyGoClock) Ticks() <-chan uint64 { return c.ch }
