//go:build linux

package vanilla

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux poller backend: edge-triggered epoll plus a
// self-pipe used to interrupt a blocked epoll_wait from another goroutine,
// grounded on the teacher's FastPoller (poller_linux.go) but simplified to
// the giant-mutex model: every call here runs with Hub.mu held by the
// caller, except the epoll_wait syscall itself and wake, which Hub.Stop and
// Hub.SpawnLater call without the lock.
type epollPoller struct {
	epfd int

	wakeR, wakeW int
	wakeBuf      [64]byte

	events [128]unix.EpollEvent
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	var p2 [2]int
	if err := unix.Pipe2(p2[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	p := &epollPoller{epfd: epfd, wakeR: p2[0], wakeW: p2[1]}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, p.wakeR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(p.wakeR),
	}); err != nil {
		_ = unix.Close(p.wakeR)
		_ = unix.Close(p.wakeW)
		_ = unix.Close(epfd)
		return nil, err
	}
	return p, nil
}

func maskToEpoll(mask PollMask) uint32 {
	var e uint32 = unix.EPOLLET
	if mask&PollIn != 0 {
		e |= unix.EPOLLIN
	}
	if mask&PollOut != 0 {
		e |= unix.EPOLLOUT
	}
	if mask&PollRDHup != 0 {
		e |= unix.EPOLLRDHUP
	}
	return e
}

func epollToMask(e uint32) PollMask {
	var m PollMask
	if e&unix.EPOLLIN != 0 {
		m |= PollIn
	}
	if e&unix.EPOLLOUT != 0 {
		m |= PollOut
	}
	if e&unix.EPOLLHUP != 0 {
		m |= PollHup
	}
	if e&unix.EPOLLERR != 0 {
		m |= PollErr
	}
	if e&unix.EPOLLRDHUP != 0 {
		m |= PollRDHup
	}
	return m
}

func (p *epollPoller) add(fd int, mask PollMask) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: maskToEpoll(mask),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) modify(fd int, mask PollMask) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: maskToEpoll(mask),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wake() error {
	_, err := unix.Write(p.wakeW, []byte{1})
	if err == unix.EAGAIN {
		// A wake is already pending in the pipe; coalesced, as intended.
		return nil
	}
	return err
}

func (p *epollPoller) wait(timeout time.Duration) ([]PollEvent, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(p.epfd, p.events[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	var out []PollEvent
	for i := 0; i < n; i++ {
		fd := int(p.events[i].Fd)
		if fd == p.wakeR {
			for {
				_, err := unix.Read(p.wakeR, p.wakeBuf[:])
				if err != nil {
					break
				}
			}
			continue
		}
		out = append(out, PollEvent{Fd: fd, Mask: epollToMask(p.events[i].Events)})
	}
	return out, nil
}

func (p *epollPoller) close() error {
	_ = unix.Close(p.wakeR)
	_ = unix.Close(p.wakeW)
	return unix.Close(p.epfd)
}
