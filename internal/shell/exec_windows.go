//go:build windows

package shell

import (
	"os/exec"
	"strconv"
)

// shellArgs builds the argv for running command through cmd.exe.
func shellArgs(command string) []string {
	return []string{"/C", command}
}

// setProcessGroup is a no-op on Windows; killTree uses taskkill instead.
func setProcessGroup(cmd *exec.Cmd) {}

// killTree terminates the child and its descendants via taskkill.
func killTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
	if err := kill.Run(); err != nil {
		_ = cmd.Process.Kill()
	}
}
