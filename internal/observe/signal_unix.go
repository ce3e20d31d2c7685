//go:build unix

package observe

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// NotifyInterrupt registers ch to receive the platform interrupt signal.
// On POSIX this is SIGINT by way of golang.org/x/sys/unix's typed
// constant rather than the generic os.Interrupt value.
func NotifyInterrupt(ch chan<- os.Signal) {
	signal.Notify(ch, unix.SIGINT)
}
