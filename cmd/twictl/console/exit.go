package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes of twictl.
const (
	ExitFailure  = 1
	ExitTransfer = 2
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail reports err in red with the generic failure code.
func Fail(err error) cli.ExitCoder {
	return Exit(ExitFailure, "%s", Red(err))
}
