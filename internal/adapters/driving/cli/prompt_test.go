package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func testPrompter(input string) (*prompter, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(input))
	return newPrompter(cmd), out
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		def   int
		want  int
	}{
		{"", 1, 1},
		{"   ", 2, 2},
		{"3", 1, 3},
		{" 5 ", 1, 5},
		{"1", 3, 1},
		{"0", 1, 1},
		{"6", 1, 1},
		{"-1", 0, 0},
		{"two", 2, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseChoice(tt.input, 5, tt.def), "input %q", tt.input)
	}
}

func TestMaskAPIKey(t *testing.T) {
	for key, want := range map[string]string{
		"":                         "****",
		"abc123":                   "****",
		"12345678":                 "****",
		"123456789":                "1234...6789",
		"sk-proj-abcdefghijklmnop": "sk-p...mnop",
	} {
		assert.Equal(t, want, maskAPIKey(key), key)
	}
}

func TestPrompter_Choose(t *testing.T) {
	p, out := testPrompter("2\nnope\n")

	assert.Equal(t, 1, p.choose("Pick", []string{"a", "b"}, 1))
	assert.Contains(t, out.String(), "Pick\n  1. a\n  2. b\n\nEnter choice [1]: ")

	assert.Equal(t, -1, p.choose("Pick", []string{"a", "b"}, 0))
	assert.Contains(t, out.String(), "Enter choice: ")
}

func TestPrompter_Ask(t *testing.T) {
	p, out := testPrompter("\ngpt-4o\n")

	assert.Equal(t, "llama3.2", p.ask("Model", "llama3.2"))
	assert.Equal(t, "gpt-4o", p.ask("Model", ""))
	assert.Equal(t, "Model [llama3.2]: Model: ", out.String())

	// input exhausted
	assert.Equal(t, "x", p.ask("Model", "x"))
}

func TestPrompter_SecretFromPipe(t *testing.T) {
	p, out := testPrompter("  sk-secret  \n")

	assert.Equal(t, "sk-secret", p.secret("Key"))
	assert.Equal(t, "Key: \n", out.String())
}
