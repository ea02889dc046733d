//go:build !unix

package engine

import "os/exec"

// configureProcessGroup keeps exec's default cancellation (kill the process).
func configureProcessGroup(cmd *exec.Cmd) {}
