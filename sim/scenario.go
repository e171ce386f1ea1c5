package sim

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// FaultKind is a failure injected on a bus event.
type FaultKind string

const (
	FaultArbitrationLost FaultKind = "arbitration_lost"
	FaultBusError        FaultKind = "bus_error"
	FaultNackAddress     FaultKind = "nack_address"
	FaultNackData        FaultKind = "nack_data"
	// FaultStall swallows the event: the interrupt never fires.
	FaultStall FaultKind = "stall"
)

func (k *FaultKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch FaultKind(s) {
	case FaultArbitrationLost, FaultBusError, FaultNackAddress, FaultNackData, FaultStall:
		*k = FaultKind(s)
		return nil
	}
	return fmt.Errorf("unknown fault kind %q", s)
}

// Fault fires once on the given bus event. Events are counted from zero
// over every START, address and data step the controller executes.
type Fault struct {
	Event int       `yaml:"event"`
	Kind  FaultKind `yaml:"kind"`
}

// Scenario describes one simulated transfer.
type Scenario struct {
	Name    string `yaml:"name"`
	Address byte   `yaml:"address"`
	// Payload is the hex encoded data written after the address byte.
	Payload string `yaml:"payload"`
	// Read is the number of bytes to read; a scenario with Read set ignores
	// the payload.
	Read int `yaml:"read"`
	// Memory preloads the target registers from register zero (hex).
	Memory string `yaml:"memory"`
	// Absent leaves the address without a target.
	Absent bool    `yaml:"absent"`
	Faults []Fault `yaml:"faults"`
}

// Bytes decodes the payload.
func (s Scenario) Bytes() ([]byte, error) {
	return decodeHex(s.Payload)
}

// Controller builds the simulated bus for the scenario.
func (s Scenario) Controller() (*Controller, *Memory, error) {
	mem := NewMemory(s.Address)
	content, err := decodeHex(s.Memory)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %s: invalid memory: %w", s.Name, err)
	}
	mem.Load(0, content)
	opts := []Option{WithFaults(s.Faults...)}
	if !s.Absent {
		opts = append(opts, WithTarget(mem))
	}
	return NewController(opts...), mem, nil
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios decodes a YAML scenario file.
func LoadScenarios(r io.Reader) ([]Scenario, error) {
	var file scenarioFile
	err := yaml.NewDecoder(r).Decode(&file)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode scenarios: %w", err)
	}
	for i, s := range file.Scenarios {
		if s.Name == "" {
			file.Scenarios[i].Name = fmt.Sprintf("scenario-%d", i)
		}
		if s.Address > 0x7F {
			return nil, fmt.Errorf("scenario %s: address %#x is not a 7-bit address", file.Scenarios[i].Name, s.Address)
		}
		if _, err := s.Bytes(); err != nil {
			return nil, fmt.Errorf("scenario %s: invalid payload: %w", file.Scenarios[i].Name, err)
		}
	}
	return file.Scenarios, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}
