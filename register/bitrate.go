package register

import "fmt"

// Common bus clock rates.
const (
	Clock100kHz = 100000
	Clock200kHz = 200000
	Clock400kHz = 400000
)

// DefaultCPUClock is the core clock the divisor is computed for unless
// configured otherwise.
const DefaultCPUClock = 16000000

// PrescalerMask covers the TWPS bits in the low end of the status register.
const PrescalerMask = 0x03

var prescalers = [...]uint32{1, 4, 16, 64}

// PrescalerBits returns the TWPS value selecting prescaler p.
func PrescalerBits(p uint32) (byte, error) {
	for bits, v := range prescalers {
		if v == p {
			return byte(bits), nil
		}
	}
	return 0, fmt.Errorf("invalid prescaler %d: must be 1, 4, 16 or 64", p)
}

// Prescaler is the inverse of PrescalerBits.
func Prescaler(bits byte) uint32 {
	return prescalers[bits&PrescalerMask]
}

// BitRate computes the bit-rate divisor for the requested SCL frequency:
// (cpu/scl - 16) / (2 * prescaler).
func BitRate(cpuHz, sclHz, prescaler uint32) (byte, error) {
	if sclHz == 0 {
		return 0, fmt.Errorf("invalid bus clock: %d", sclHz)
	}
	if _, err := PrescalerBits(prescaler); err != nil {
		return 0, err
	}
	ratio := cpuHz / sclHz
	if ratio < 16 {
		return 0, fmt.Errorf("scl %d Hz is too fast for cpu clock %d Hz", sclHz, cpuHz)
	}
	div := (ratio - 16) / (2 * prescaler)
	if div > 0xFF {
		return 0, fmt.Errorf("scl %d Hz is too slow for cpu clock %d Hz with prescaler %d", sclHz, cpuHz, prescaler)
	}
	return byte(div), nil
}

// SCL returns the bus frequency a divisor yields.
func SCL(cpuHz uint32, div byte, prescaler uint32) uint32 {
	return cpuHz / (16 + 2*uint32(div)*prescaler)
}
