//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// sessionAttr returns SysProcAttr that places the subprocess in its own
// session, so that it and any sub-children form one killable group.
func sessionAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// killGroup signals the child's entire process group. Sub-children spawned by
// cargo (rustc, build scripts) die with it.
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
