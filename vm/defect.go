package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("t10.vm")

// Defect is the panic value raised when a caller breaks a precondition of
// this package: reading a scalar as a pointer, addressing a moved or dropped
// container, decoding a corrupt state byte, and so on. It is never returned
// as an error. Recovering from it is only meaningful in tests.
type Defect struct {
	Op  string
	Msg string
}

func (d *Defect) Error() string {
	return "t10/vm: " + d.Op + ": " + d.Msg
}

// ChecksEnabled reports whether internal consistency checks are compiled in.
func ChecksEnabled() bool {
	return debugChecks
}

func fail(op, format string, args ...any) {
	d := &Defect{Op: op, Msg: fmt.Sprintf(format, args...)}
	log.Critical(d.Error())
	panic(d)
}
