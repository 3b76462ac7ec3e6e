package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// terminal drives the interactive prompt loop. It renders CommandOutput and
// CommandComplete to the local controlling terminal; fsh-client has no
// local child process, so unlike a conventional PTY-backed shell there is
// no subprocess to attach a pty to. Instead the local terminal itself is
// put into raw mode for the duration of each line read, so Ctrl-C and
// backspace behave like a real shell prompt rather than relying on the
// local tty driver's cooked-mode line discipline.
type terminal struct {
	c      *client
	stdin  int
	cols   int
	rows   int
	isTerm bool
}

func newTerminal(c *client) *terminal {
	t := &terminal{c: c, stdin: int(os.Stdin.Fd())}
	t.isTerm = term.IsTerminal(t.stdin)
	t.refreshSize()
	return t
}

func (t *terminal) refreshSize() {
	if !t.isTerm {
		return
	}
	if rows, cols, err := pty.Getsize(os.Stdin); err == nil {
		t.rows, t.cols = rows, cols
	}
}

func (t *terminal) run() error {
	fmt.Println("FSH - Folder Shell Protocol Client")
	fmt.Println("Type 'help' for available commands, 'exit' to quit.")
	fmt.Println()

	if t.c.folderInfo != nil {
		fmt.Printf("Bound to folder: %s\n", t.c.folderInfo.Name)
	}

	sigwinch := make(chan os.Signal, 1)
	if t.isTerm {
		signal.Notify(sigwinch, syscall.SIGWINCH)
		defer signal.Stop(sigwinch)
		go func() {
			for range sigwinch {
				t.refreshSize()
			}
		}()
	}

	for {
		line, ok, err := t.readLine(t.prompt())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "help" {
			t.printHelp()
			continue
		}

		if err := t.execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func (t *terminal) prompt() string {
	dir := "/"
	name := "fsh"
	if t.c.folderInfo != nil {
		name = t.c.folderInfo.Name
		if t.c.folderInfo.CurrentDir != "" {
			dir = t.c.folderInfo.CurrentDir
		}
	}
	return fmt.Sprintf("%s:%s$ ", name, dir)
}

func (t *terminal) printHelp() {
	fmt.Println("Built-in commands:")
	fmt.Println("  ls [path]   list a directory in the bound folder")
	fmt.Println("  help        show this message")
	fmt.Println("  exit, quit  close the connection")
	fmt.Println("Anything else is sent to the server as a shell command.")
}

func (t *terminal) execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	if fields[0] == "ls" {
		path := "."
		if len(fields) > 1 {
			path = fields[1]
		}
		resp, err := t.c.listFiles(path, false)
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.ErrorMessage)
		}
		for _, f := range resp.Files {
			marker := ""
			if f.IsDirectory {
				marker = "/"
			}
			fmt.Printf("%10d  %s%s\n", f.Size, f.Name, marker)
		}
		return nil
	}

	name := fields[0]
	args := fields[1:]

	exitCode, err := t.c.runCommand(name, args,
		func(b []byte) { os.Stdout.Write(b) },
		func(b []byte) { os.Stderr.Write(b) },
	)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		fmt.Fprintf(os.Stderr, "[exit status %d]\n", exitCode)
	}
	return nil
}

// readLine reads one line from stdin. When stdin is a terminal, raw mode is
// entered for the duration of the read so a handful of control characters
// (Ctrl-C to cancel the line, Ctrl-D to end the session, backspace) behave
// as an interactive shell user expects; the byte-at-a-time loop below
// stands in for line discipline the kernel tty driver would normally
// provide in cooked mode.
func (t *terminal) readLine(prompt string) (string, bool, error) {
	fmt.Print(prompt)

	if !t.isTerm {
		return readLineCooked()
	}

	oldState, err := term.MakeRaw(t.stdin)
	if err != nil {
		return readLineCooked()
	}
	defer term.Restore(t.stdin, oldState)

	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(one)
		if n == 0 || err != nil {
			return "", false, nil
		}

		switch one[0] {
		case '\r', '\n':
			fmt.Print("\r\n")
			return string(buf), true, nil
		case 3: // Ctrl-C: cancel the current line
			fmt.Print("^C\r\n")
			buf = buf[:0]
			fmt.Print(prompt)
		case 4: // Ctrl-D: end of input
			if len(buf) == 0 {
				return "", false, nil
			}
		case 127, 8: // backspace
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				fmt.Print("\b \b")
			}
		default:
			buf = append(buf, one[0])
			os.Stdout.Write(one)
		}
	}
}

func readLineCooked() (string, bool, error) {
	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(one)
		if n == 0 || err != nil {
			if len(buf) == 0 {
				return "", false, nil
			}
			return string(buf), true, nil
		}
		if one[0] == '\n' {
			return strings.TrimSuffix(string(buf), "\r"), true, nil
		}
		buf = append(buf, one[0])
	}
}
