//go:build unix

package sockdriver

import (
	"golang.org/x/sys/unix"

	"github.com/netforge-go/netforge/pkg/errs"
)

// Pipe is a self-signaling socketpair backing the cross-thread wakeup
// connection. Write is safe to call
// from any goroutine/thread; Read is only ever called from the reactor
// thread during poll.
type Pipe struct {
	r, w *Socket
}

// NewPipe creates a connected, non-blocking socketpair.
func NewPipe() (*Pipe, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errs.NewConnectionError("socketpair", err)
	}
	return &Pipe{r: &Socket{FD: fds[0]}, w: &Socket{FD: fds[1]}}, nil
}

// ReadSocket is the end the reactor polls for readability.
func (p *Pipe) ReadSocket() *Socket { return p.r }

// Wakeup writes a single byte, waking the reactor's next poll. Safe from
// any thread; this is the only sanctioned cross-thread entry point.
func (p *Pipe) Wakeup() error {
	_, err := unix.Write(p.w.FD, []byte{0})
	if err != nil && err != unix.EAGAIN {
		return errs.NewConnectionError("wakeup", err)
	}
	return nil
}

// Drain reads and discards every pending wakeup byte, called once per poll
// after the read end reports readable.
func (p *Pipe) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r.FD, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases both ends of the pair.
func (p *Pipe) Close() error {
	e1 := unix.Close(p.r.FD)
	e2 := unix.Close(p.w.FD)
	if e1 != nil {
		return e1
	}
	return e2
}
