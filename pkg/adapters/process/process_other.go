//go:build !unix

package process

import (
	"errors"
	"os"
	"os/exec"

	"github.com/aretw0/mediabridge/pkg/ports"
)

func configure(cmd *exec.Cmd) {}

// proc waits in a single goroutine where no non-blocking wait is available.
type proc struct {
	cmd  *exec.Cmd
	done chan struct{}
	code int
	err  error
}

func newProcess(cmd *exec.Cmd) *proc {
	p := &proc{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			p.code = exitErr.ExitCode()
		default:
			p.err = err
		}
		close(p.done)
	}()
	return p
}

func (p *proc) PID() int { return p.cmd.Process.Pid }

func (p *proc) Poll() (ports.ExitStatus, bool, error) {
	select {
	case <-p.done:
		return ports.ExitStatus{Code: p.code}, true, p.err
	default:
		return ports.ExitStatus{}, false, nil
	}
}

func (p *proc) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}
