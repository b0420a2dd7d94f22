//go:build e2e

package e2e

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestStaticSIDReachesBroker brings up a broker container and a
// static-SID daemon container from the prebuilt srv6d image, pointed at
// each other over a bind-mounted Unix socket, waits two seconds, and
// logs the broker container's IPv6 route table. It does not assert that
// the declared SID reached the broker; the dump is only logged.
func TestStaticSIDReachesBroker(t *testing.T) {
	h := NewHarness(t)

	fpmLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer fpmLn.Close()
	go func() {
		for {
			conn, err := fpmLn.Accept()
			if err != nil {
				return
			}
			go func() {
				buf := make([]byte, 512)
				for {
					if _, err := conn.Read(buf); err != nil {
						return
					}
				}
			}()
		}
	}()

	cfgPath := filepath.Join(h.ShareDir, "static.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
sids:
  - address: fc00::1
    behavior: end
    ifname: eth0
`), 0o644); err != nil {
		t.Fatal(err)
	}

	h.StartBroker(fpmLn.Addr().String())
	h.StartStatic(cfgPath)

	time.Sleep(2 * time.Second)

	out, _, err := h.Exec("broker", []string{"ip", "-6", "route", "show", "table", "all"})
	if err != nil {
		t.Fatalf("diag exec failed: %v", err)
	}
	t.Logf("broker route table:\n%s", out)
}
