package vanilla

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Process wraps a forked-and-exec'd child, per spec.md §4.8: Stdin, Stdout
// and (unless merged with Stdout) Stderr are Descriptors integrated with
// the Hub's Poller exactly like any other byte stream, and Done is a Value
// fulfilled once the child has exited.
//
// Reaping is delegated to os/exec.Cmd.Wait, run on a dedicated background
// goroutine per Process rather than through a hand-rolled SIGCHLD self-pipe
// à la the reference implementation's process.py: os/exec already owns
// correct, portable child-reaping, and starting one goroutine per live
// child to wait on it is the idiomatic Go way of turning that into an
// event the Hub can observe. See DESIGN.md.
type Process struct {
	hub *Hub
	cmd *exec.Cmd

	Stdin  *Descriptor
	Stdout *Descriptor
	Stderr *Descriptor // nil when stderrToOut is true
	Done   *Value
}

// Execv forks and execs argv[0] with the given arguments, per spec.md
// §4.8. A nil env inherits the caller's environment; stderrToOut merges
// the child's stderr into the same pipe as stdout, leaving Process.Stderr
// nil. Errors locating or executing argv[0] (ENOENT, EACCES, ...) are
// returned directly from Execv, same as os/exec.Cmd.Start.
func (h *Hub) Execv(argv []string, env []string, stderrToOut bool) (*Process, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyArgv
	}

	var inFds, outFds, errFds [2]int
	if err := unix.Pipe2(inFds[:], unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	if err := unix.Pipe2(outFds[:], unix.O_CLOEXEC); err != nil {
		_ = unix.Close(inFds[0])
		_ = unix.Close(inFds[1])
		return nil, err
	}
	if !stderrToOut {
		if err := unix.Pipe2(errFds[:], unix.O_CLOEXEC); err != nil {
			_ = unix.Close(inFds[0])
			_ = unix.Close(inFds[1])
			_ = unix.Close(outFds[0])
			_ = unix.Close(outFds[1])
			return nil, err
		}
	}

	childStdin := os.NewFile(uintptr(inFds[0]), "child-stdin")
	childStdout := os.NewFile(uintptr(outFds[1]), "child-stdout")
	var childStderr *os.File

	cmd := exec.Command(argv[0], argv[1:]...)
	if env != nil {
		cmd.Env = env
	}
	cmd.Stdin = childStdin
	cmd.Stdout = childStdout
	if stderrToOut {
		cmd.Stderr = childStdout
	} else {
		childStderr = os.NewFile(uintptr(errFds[1]), "child-stderr")
		cmd.Stderr = childStderr
	}

	startErr := cmd.Start()

	// Close our copies of the child-side fds regardless of outcome: on
	// success the child holds its own duplicates; on failure there is
	// nothing left to close them for.
	_ = childStdin.Close()
	_ = childStdout.Close()
	if childStderr != nil {
		_ = childStderr.Close()
	}

	if startErr != nil {
		_ = unix.Close(inFds[1])
		_ = unix.Close(outFds[0])
		if !stderrToOut {
			_ = unix.Close(errFds[0])
		}
		return nil, startErr
	}

	stdinDesc, err := h.NewDescriptor(inFds[1])
	if err != nil {
		_ = unix.Close(inFds[1])
		_ = unix.Close(outFds[0])
		if !stderrToOut {
			_ = unix.Close(errFds[0])
		}
		return nil, err
	}
	stdoutDesc, err := h.NewDescriptor(outFds[0])
	if err != nil {
		_ = stdinDesc.Close()
		_ = unix.Close(outFds[0])
		if !stderrToOut {
			_ = unix.Close(errFds[0])
		}
		return nil, err
	}
	var stderrDesc *Descriptor
	if !stderrToOut {
		stderrDesc, err = h.NewDescriptor(errFds[0])
		if err != nil {
			_ = stdinDesc.Close()
			_ = stdoutDesc.Close()
			_ = unix.Close(errFds[0])
			return nil, err
		}
	}

	done := h.Value()
	p := &Process{
		hub:    h,
		cmd:    cmd,
		Stdin:  stdinDesc,
		Stdout: stdoutDesc,
		Stderr: stderrDesc,
		Done:   done,
	}

	go func() {
		waitErr := cmd.Wait()
		done.Send(waitErr)
	}()

	return p, nil
}

// Pid returns the child's process ID.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// CheckLiveness reports whether the child is believed still running. It is
// best-effort: it keeps reporting true after the child has exited until the
// wait goroutine's Cmd.Wait returns and records the exit state, which
// happens just before Done is fulfilled; callers wanting a definitive
// answer should select on Process.Done instead.
func (p *Process) CheckLiveness() bool {
	return p.cmd.ProcessState == nil
}

// Signal sends sig to the child.
func (p *Process) Signal(sig syscall.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// Terminate sends SIGTERM to the child, per spec.md §4.8.
func (p *Process) Terminate() error {
	return p.Signal(syscall.SIGTERM)
}

// Kill sends SIGKILL to the child.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}
