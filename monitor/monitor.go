// Package monitor is the interactive serial console: a normal kernel thread
// that owns the port's serial device, reads lines, and dispatches the
// built-in diagnostic commands (ps, free, uptime, stop/restart, run).
package monitor

import (
	"fmt"
	"io"

	"github.com/google/shlex"

	"ember/hal"
	"ember/kernel"
)

const (
	prompt      = "ember> "
	maxLineLen  = 120
	threadStack = 768
)

// Monitor is the console service. Create it with New and launch it with
// Start once the kernel is constructed.
type Monitor struct {
	k      *kernel.Kernel
	con    *console
	reg    *registry
	banner string
}

// New wires a monitor to a kernel and serial device.
func New(k *kernel.Kernel, serial hal.Serial, banner string) *Monitor {
	m := &Monitor{
		k:      k,
		con:    newConsole(serial),
		reg:    newRegistry(),
		banner: banner,
	}
	m.registerBuiltins()
	return m
}

// Start launches the console thread. Returns nil if no thread could be
// created.
func (m *Monitor) Start() *kernel.Thread {
	return m.k.NewThread("monitor", threadStack, m.run, kernel.FlagReady, nil, nil)
}

func (m *Monitor) run() int {
	if m.banner != "" {
		m.con.print(m.banner + "\r\n")
	}
	if !m.con.start(m.k) {
		m.con.print("monitor: no signals free\r\n")
		return 1
	}

	for {
		m.con.print(prompt)
		line := m.readLine()
		m.dispatch(line)
	}
}

// readLine gathers one line with echo and rubout handling.
func (m *Monitor) readLine() string {
	var line []byte
	for {
		b := m.con.readByte()
		switch b {
		case '\r', '\n':
			m.con.print("\r\n")
			return string(line)
		case 0x08, 0x7F: // backspace, delete
			if len(line) > 0 {
				line = line[:len(line)-1]
				m.con.print("\b \b")
			}
		case 0x03: // ^C abandons the line
			m.con.print("^C\r\n")
			return ""
		default:
			if b >= 0x20 && b < 0x7F && len(line) < maxLineLen {
				line = append(line, b)
				m.con.write([]byte{b})
			}
		}
	}
}

// dispatch tokenizes and runs one command line.
func (m *Monitor) dispatch(line string) {
	args, err := shlex.Split(line)
	if err != nil {
		m.con.print("parse error: " + err.Error() + "\r\n")
		return
	}
	if len(args) == 0 {
		return
	}

	cmd, ok := m.reg.lookup(args[0])
	if !ok {
		m.con.print("unknown command " + args[0] + " (try help)\r\n")
		return
	}
	if err := cmd.Run(m, writer{m.con}, args[1:]); err != nil {
		fmt.Fprintf(writer{m.con}, "%s: %v\r\n", cmd.Name, err)
	}
}

// writer adapts the console for the fmt helpers used by command handlers.
type writer struct {
	con *console
}

func (w writer) Write(p []byte) (int, error) {
	w.con.write(p)
	return len(p), nil
}

var _ io.Writer = writer{}
