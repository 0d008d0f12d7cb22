package vanilla

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	ip := net.ParseIP(host)
	if ip == nil {
		addr, err := net.ResolveIPAddr("ip4", host)
		if err != nil {
			return out, err
		}
		ip = addr.IP
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return out, &net.AddrError{Err: "not an IPv4 address", Addr: host}
	}
	copy(out[:], ip4)
	return out, nil
}

// TCPListen opens a listening socket on host:port (port 0 picks an
// ephemeral port) and returns the bound port plus a Recver that yields a
// *Descriptor for each accepted connection, grounded on the reference
// implementation's tcp.py: a dedicated task loops accept() and forwards
// each connection down a pipe. The task unregisters and closes the
// listening socket when the Hub stops, when accept fails, or when a
// connection can no longer be sent down the pipe.
func (h *Hub) TCPListen(host string, port int) (*Recver, int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, 0, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	addr, err := sockaddr(host, port)
	if err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}
	boundPort := portOf(bound)

	acceptReady := false
	if err := h.Register(fd, PollIn, func(mask PollMask) {
		acceptReady = true
	}); err != nil {
		_ = unix.Close(fd)
		return nil, 0, err
	}

	sender, recver := h.Pipe()
	h.Spawn(func() {
		for {
			h.mu.Lock()
			for !acceptReady && !h.stopping {
				h.cond.Wait()
			}
			stopping := h.stopping
			h.mu.Unlock()
			if stopping {
				_ = h.Unregister(fd)
				_ = unix.Close(fd)
				sender.Close()
				return
			}

			for {
				connFd, _, err := unix.Accept(fd)
				if err == unix.EAGAIN {
					h.mu.Lock()
					acceptReady = false
					h.mu.Unlock()
					break
				}
				if err != nil {
					_ = h.Unregister(fd)
					_ = unix.Close(fd)
					sender.Close()
					return
				}
				desc, err := h.NewDescriptor(connFd)
				if err != nil {
					_ = unix.Close(connFd)
					continue
				}
				if err := sender.Send(desc, nil); err != nil {
					_ = desc.Close()
					_ = h.Unregister(fd)
					_ = unix.Close(fd)
					return
				}
			}
		}
	})

	return recver, boundPort, nil
}

// TCPConnect dials host:port with a non-blocking connect that parks on
// writability rather than blocking the Hub, per the design note in
// spec.md §9 improving on the reference implementation's blocking connect.
func (h *Hub) TCPConnect(host string, port int, timeout *time.Duration) (*Descriptor, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	addr, err := sockaddr(host, port)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	err = unix.Connect(fd, addr)
	if err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return nil, err
	}

	if err == unix.EINPROGRESS {
		writable := false
		regErr := h.Register(fd, PollOut, func(mask PollMask) {
			writable = true
		})
		if regErr != nil {
			_ = unix.Close(fd)
			return nil, regErr
		}

		h.mu.Lock()
		timedOut := false
		hasTimer, handle := h.armTimer(timeout, &timedOut)
		for !writable && !timedOut && !h.stopping {
			h.cond.Wait()
		}
		if hasTimer {
			h.scheduler.Remove(handle)
		}
		stopping := h.stopping
		h.mu.Unlock()

		if timedOut {
			_ = h.Unregister(fd)
			_ = unix.Close(fd)
			return nil, ErrTimeout
		}
		if stopping {
			_ = h.Unregister(fd)
			_ = unix.Close(fd)
			return nil, ErrHalt
		}

		if errno, serr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR); serr == nil && errno != 0 {
			_ = h.Unregister(fd)
			_ = unix.Close(fd)
			return nil, unix.Errno(errno)
		}
		_ = h.Unregister(fd)
	}

	return h.NewDescriptor(fd)
}

func sockaddr(host string, port int) (unix.Sockaddr, error) {
	ip, err := resolveIPv4(host)
	if err != nil {
		return nil, err
	}
	return &unix.SockaddrInet4{Port: port, Addr: ip}, nil
}

func portOf(sa unix.Sockaddr) int {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return in4.Port
	}
	return 0
}
