package monitor

import (
	"fmt"
	"io"
	"strconv"

	"ember/kernel"
)

func (m *Monitor) registerBuiltins() {
	for _, cmd := range []command{
		{Name: "help", Usage: "help", Desc: "list commands", Run: cmdHelp},
		{Name: "ps", Usage: "ps", Desc: "list threads", Run: cmdPS},
		{Name: "free", Usage: "free", Desc: "show page allocator stats", Run: cmdFree},
		{Name: "uptime", Usage: "uptime", Desc: "show milliseconds since boot", Run: cmdUptime},
		{Name: "stop", Usage: "stop <id>", Desc: "stop a thread cooperatively", Run: cmdStop},
		{Name: "restart", Usage: "restart <id>", Desc: "restart a stopped thread", Run: cmdRestart},
		{Name: "run", Usage: "run [ms]", Desc: "fire a pool job that sleeps and exits", Run: cmdRun},
	} {
		if err := m.reg.register(cmd); err != nil {
			panic(err)
		}
	}
}

func cmdHelp(m *Monitor, out io.Writer, args []string) error {
	for _, name := range m.reg.names() {
		cmd, _ := m.reg.lookup(name)
		fmt.Fprintf(out, "%s %s\r\n", padRight(cmd.Usage, 16), cmd.Desc)
	}
	return nil
}

func cmdPS(m *Monitor, out io.Writer, args []string) error {
	fmt.Fprintf(out, "%s %s %s %s %s %s\r\n",
		padLeft("ID", 4),
		padRight("NAME", 12),
		padRight("STATE", 8),
		padLeft("STACK", 6),
		padLeft("PEAK", 6),
		padLeft("TICKS", 8),
	)
	for _, info := range m.k.Threads() {
		name := info.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%s %s %s %s %s %s\r\n",
			padLeft(itoa(int(info.ID)), 4),
			padRight(name, 12),
			padRight(info.State.String(), 8),
			padLeft(itoa(info.StackBytes), 6),
			padLeft(itoa(info.StackPeak), 6),
			padLeft(utoa(uint64(info.Ticks)), 8),
		)
	}
	return nil
}

func cmdFree(m *Monitor, out io.Writer, args []string) error {
	total, used, free := m.k.PageStats()
	fmt.Fprintf(out, "pages: %d total, %d used, %d free\r\n", total, used, free)
	return nil
}

func cmdUptime(m *Monitor, out io.Writer, args []string) error {
	fmt.Fprintf(out, "up %d ms\r\n", m.k.Now())
	return nil
}

func (m *Monitor) threadArg(args []string) (*kernel.Thread, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected a thread id")
	}
	id, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("bad thread id %q", args[0])
	}
	t := m.k.FindThread(uint16(id))
	if t == nil {
		return nil, fmt.Errorf("no thread %d", id)
	}
	return t, nil
}

func cmdStop(m *Monitor, out io.Writer, args []string) error {
	t, err := m.threadArg(args)
	if err != nil {
		return err
	}
	t.Stop()
	fmt.Fprintf(out, "stopped %d\r\n", t.ID())
	return nil
}

func cmdRestart(m *Monitor, out io.Writer, args []string) error {
	t, err := m.threadArg(args)
	if err != nil {
		return err
	}
	t.Restart()
	fmt.Fprintf(out, "restarted %d\r\n", t.ID())
	return nil
}

func cmdRun(m *Monitor, out io.Writer, args []string) error {
	ms := 100
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("bad duration %q", args[0])
		}
		ms = v
	}

	k := m.k
	job := k.FromPool("job", func() int {
		k.Delay(kernel.Duration(ms))
		return 0
	}, nil, nil)
	if job == nil {
		return fmt.Errorf("pool empty")
	}
	fmt.Fprintf(out, "job %d started (%d ms)\r\n", job.ID(), ms)
	return nil
}
