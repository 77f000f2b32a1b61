//go:build unix

package sockdriver

import (
	"golang.org/x/sys/unix"

	"github.com/netforge-go/netforge/pkg/errs"
)

// Readiness is the readable/writable state the driver reports back for one
// socket after a Wait call.
type Readiness struct {
	Readable bool
	Writable bool
}

// Waiter polls a fixed set of sockets for readiness, combined with the
// manager's DNS UDP socket, within a single bounded wait
type Waiter struct {
	fds []unix.PollFd
	sockets []*Socket
}

// Reset clears the registered set before the caller re-adds this step's
// sockets (the set can change connection to connection, poll to poll).
func (w *Waiter) Reset() {
	w.fds = w.fds[:0]
	w.sockets = w.sockets[:0]
}

// Add registers a socket for the next Wait, requesting readable and/or
// writable notification.
func (w *Waiter) Add(s *Socket, wantRead, wantWrite bool) {
	var events int16
	if wantRead {
		events |= unix.POLLIN
	}
	if wantWrite {
		events |= unix.POLLOUT
	}
	w.fds = append(w.fds, unix.PollFd{Fd: int32(s.FD), Events: events})
	w.sockets = append(w.sockets, s)
}

// Wait blocks up to timeoutMS (0 = return immediately, -1 = forever) for any
// registered socket to become ready, then invokes cb once per ready socket.
func (w *Waiter) Wait(timeoutMS int, cb func(s *Socket, r Readiness)) error {
	if len(w.fds) == 0 {
		return nil
	}
	n, err := unix.Poll(w.fds, timeoutMS)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return errs.NewConnectionError("poll", err)
	}
	if n == 0 {
		return nil
	}
	for i, pfd := range w.fds {
		if pfd.Revents == 0 {
			continue
		}
		r := Readiness{
			Readable: pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0,
			Writable: pfd.Revents&(unix.POLLOUT|unix.POLLERR) != 0,
		}
		cb(w.sockets[i], r)
	}
	return nil
}
