// Package sys holds the few real OS-level preconditions this suite
// checks before it starts mirroring routes to the FPM — it never
// programs the forwarding plane itself (that is the full-forwarding-
// plane Non-goal), it only verifies the box it runs on is able to.
package sys

import (
	"fmt"
	"os"
)

// VerifyIPv6Forwarding reports whether the kernel has IPv6 forwarding
// enabled. The broker daemon calls this once at startup, after its
// modules are initialized, and logs a warning
// rather than failing startup, since a broker can run on a box that is
// only staging FPM mirrors for a downstream forwarder.
func VerifyIPv6Forwarding() error {
	forward, err := os.ReadFile("/proc/sys/net/ipv6/conf/all/forwarding")
	if err != nil {
		return err
	}
	if string(forward) != "1\n" {
		return fmt.Errorf("IPv6 forwarding is not enabled on this host")
	}
	return nil
}
