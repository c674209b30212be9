//go:build wasip1

package guest

import "fmt"

// Log writes msg to the host log.
func Log(msg string) {
	p, n := stringPtr(msg)
	envPrint(p, n)
}

func Logf(format string, args ...any) {
	Log(fmt.Sprintf(format, args...))
}

// Abort reports a fatal guest error to the host, which traps the call. It
// does not return.
func Abort(msg, file string, line, col int) {
	mp, mn := stringPtr(msg)
	fp, fn := stringPtr(file)
	envAbort(mp, mn, fp, fn, int32(line), int32(col))
	panic(msg)
}
