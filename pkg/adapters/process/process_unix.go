//go:build unix

package process

import (
	"errors"
	"os/exec"
	"syscall"

	"github.com/aretw0/mediabridge/pkg/ports"
	"golang.org/x/sys/unix"
)

// configure starts the program in its own process group so Kill reaches
// everything it spawned.
func configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// proc is reaped with wait4(WNOHANG); no goroutine waits on it.
type proc struct {
	cmd    *exec.Cmd
	pid    int
	exited bool
	status ports.ExitStatus
}

func newProcess(cmd *exec.Cmd) *proc {
	return &proc{cmd: cmd, pid: cmd.Process.Pid}
}

func (p *proc) PID() int { return p.pid }

func (p *proc) Poll() (ports.ExitStatus, bool, error) {
	if p.exited {
		return p.status, true, nil
	}
	return p.wait(unix.WNOHANG)
}

func (p *proc) Kill() error {
	if p.exited {
		return nil
	}
	if err := unix.Kill(-p.pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	_, _, err := p.wait(0)
	return err
}

func (p *proc) wait(options int) (ports.ExitStatus, bool, error) {
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(p.pid, &ws, options, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return ports.ExitStatus{}, false, err
		}
		if pid == 0 {
			return ports.ExitStatus{}, false, nil
		}
		break
	}

	p.exited = true
	switch {
	case ws.Exited():
		p.status.Code = ws.ExitStatus()
	case ws.Signaled():
		p.status.Code = 128 + int(ws.Signal())
	default:
		p.status.Code = -1
	}
	_ = p.cmd.Process.Release()
	return p.status, true, nil
}
