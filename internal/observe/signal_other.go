//go:build !unix

package observe

import (
	"os"
	"os/signal"
)

// NotifyInterrupt registers ch to receive the platform interrupt signal,
// using the portable os.Interrupt value on platforms x/sys/unix does not
// cover.
func NotifyInterrupt(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
