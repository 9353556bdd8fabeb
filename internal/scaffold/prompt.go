package scaffold

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter answers yes/no questions about existing artifacts.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// AnswerAll is a Prompter that always returns the same answer.
type AnswerAll bool

func (a AnswerAll) Confirm(string) (bool, error) {
	return bool(a), nil
}

// LinePrompter asks on Out and reads one line per question from In.
// End of input counts as "no".
type LinePrompter struct {
	out    io.Writer
	reader *bufio.Reader
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{out: out, reader: bufio.NewReader(in)}
}

func (p *LinePrompter) Confirm(question string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", question); err != nil {
		return false, err
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
