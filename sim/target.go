package sim

import "sync"

// Target is a peripheral on the simulated bus.
type Target interface {
	// Address returns the 7-bit bus address.
	Address() byte
	// Begin is called when the target is addressed; returning false NACKs
	// the address.
	Begin(read bool) bool
	// Write receives one byte; returning false NACKs it.
	Write(b byte) bool
	// Read returns the next byte for the master.
	Read() byte
	// End is called when the transaction is stopped or abandoned.
	End()
}

// Memory is a register-pointer device: the first byte written in a
// transaction selects the register, following bytes are stored from there
// on and reads continue from the current register.
type Memory struct {
	mx      sync.Mutex
	address byte
	regs    [256]byte
	ptr     byte
	first   bool
	// NackAfter makes the device reject data bytes once that many were
	// written in one transaction (0 disables it).
	NackAfter int
	written   int
}

func NewMemory(address byte) *Memory {
	return &Memory{address: address}
}

func (m *Memory) Address() byte {
	return m.address
}

func (m *Memory) Begin(read bool) bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.first = !read
	m.written = 0
	return true
}

func (m *Memory) Write(b byte) bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.NackAfter > 0 && m.written >= m.NackAfter {
		return false
	}
	m.written++
	if m.first {
		m.ptr = b
		m.first = false
		return true
	}
	m.regs[m.ptr] = b
	m.ptr++
	return true
}

func (m *Memory) Read() byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	b := m.regs[m.ptr]
	m.ptr++
	return b
}

func (m *Memory) End() {}

// Load copies data into the registers starting at reg.
func (m *Memory) Load(reg byte, data []byte) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for i, b := range data {
		m.regs[reg+byte(i)] = b
	}
}

// Dump returns n registers starting at reg.
func (m *Memory) Dump(reg byte, n int) []byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = m.regs[reg+byte(i)]
	}
	return out
}
