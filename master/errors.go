package master

import (
	"fmt"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/register"
)

// TransferError carries the status a failed transfer ended with. It matches
// twi.ErrTransfer and the sentinel of its failure class with errors.Is.
type TransferError struct {
	Status register.Status
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("twi transfer failed with status %s", e.Status)
}

func (e *TransferError) Unwrap() []error {
	errs := []error{twi.ErrTransfer}
	if e.Status == register.Timeout {
		return append(errs, twi.ErrTimeout)
	}
	switch register.Masked(byte(e.Status)) {
	case register.MTxAdrNack, register.MRxAdrNack, register.MTxDataNack:
		errs = append(errs, twi.ErrNack)
	case register.BusError:
		errs = append(errs, twi.ErrBusError)
	case register.ArbLost:
		errs = append(errs, twi.ErrArbitration)
	}
	return errs
}
