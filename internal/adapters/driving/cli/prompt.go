package cli

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads interactive answers from the command's input.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line() string {
	s, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimSpace(s)
}

// ask prints label and returns the answer, or def when it is blank.
func (p *prompter) ask(label, def string) string {
	if def != "" {
		p.cmd.Printf("%s [%s]: ", label, def)
	} else {
		p.cmd.Printf("%s: ", label)
	}
	if v := p.line(); v != "" {
		return v
	}
	return def
}

// choose lists options and returns the picked index, or -1 when the answer
// is not a listed number and there is no default. def is 1-based; 0 means
// no default.
func (p *prompter) choose(title string, options []string, def int) int {
	p.cmd.Println(title)
	for i, o := range options {
		p.cmd.Printf("  %d. %s\n", i+1, o)
	}
	if def > 0 {
		p.cmd.Printf("\nEnter choice [%d]: ", def)
	} else {
		p.cmd.Print("\nEnter choice: ")
	}
	return parseChoice(p.line(), len(options), def) - 1
}

// secret reads without echo on a terminal and falls back to a plain line.
func (p *prompter) secret(label string) string {
	p.cmd.Printf("%s: ", label)
	defer p.cmd.Println()

	if p.cmd.InOrStdin() == os.Stdin {
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			if b, err := term.ReadPassword(fd); err == nil {
				return strings.TrimSpace(string(b))
			}
		}
	}
	return p.line()
}

// parseChoice converts a 1-based menu answer, falling back to def for
// anything outside 1..n.
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
