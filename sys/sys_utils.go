package sys

import (
	"fmt"
	"os/exec"
)

func Exec(name string, arg ...string) error {
	out, err := exec.Command(name, arg...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("error executing command: %s %s. %w. Output: %s", name, arg, err, out)
	}
	return nil
}

// ExecOutput runs name with arg and returns its combined stdout/stderr,
// for the diag subcommand's forwarding-table dump.
func ExecOutput(name string, arg ...string) (string, error) {
	out, err := exec.Command(name, arg...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("error executing command: %s %s. %w", name, arg, err)
	}
	return string(out), nil
}
