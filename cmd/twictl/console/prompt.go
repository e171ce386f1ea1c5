package console

import (
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

var noYesConstraints = []string{No, Yes}

// Confirm asks a yes/no question defaulting to no.
func Confirm(question string) (bool, error) {
	answer, err := Prompt(question, noYesConstraints...)
	if err != nil {
		return false, err
	}
	return answer == Yes, nil
}

// Prompt reads one answer. With constraints the first one is the default
// and any other input falls back to it.
func Prompt(question string, constraints ...string) (string, error) {
	def := strings.ToUpper(constraints[0])
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(def)
	for i := 1; i < len(constraints); i++ {
		prompt.WriteString("/")
		prompt.WriteString(constraints[i])
	}
	prompt.WriteString("]:")
	rl, err := readline.New(prompt.String())
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if err != nil {
		return "", err
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return normalized, nil
		}
	}
	return constraints[0], nil
}

// Shell is an interactive line reader with history.
type Shell struct {
	rl *readline.Instance
}

func NewShell(prompt string) (*Shell, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return nil, err
	}
	return &Shell{rl: rl}, nil
}

// Next returns the fields of the next non-empty line.
func (s *Shell) Next() ([]string, error) {
	for {
		line, err := s.rl.Readline()
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields, nil
		}
	}
}

func (s *Shell) Close() error {
	return s.rl.Close()
}
