//go:build e2e

// Package e2e runs the broker and daemon binaries in real containers over
// a Docker network and a Unix-domain broker socket shared via a bind
// mount, the same shape as the teacher's container-per-node harness but
// trimmed to the two roles srv6d needs wired together: a broker
// container and one or more daemon containers pointed at it.
package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	ImageName   = "srv6d-e2e:latest"
	WaitTimeout = time.Minute
)

// Harness runs srv6d binaries in containers sharing a bind-mounted
// directory that holds the broker's Unix socket and each daemon's config
// file, avoiding the network-namespace plumbing the real netns-scoped
// SID programming would need inside a test container.
type Harness struct {
	t       *testing.T
	ctx     context.Context
	mu      sync.Mutex
	Nodes   map[string]testcontainers.Container
	ShareDir string
}

// NewHarness creates a harness with a host directory bind-mounted into
// every container at /share.
func NewHarness(t *testing.T) *Harness {
	dir := filepath.Join(t.TempDir(), "share")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	h := &Harness{
		t:        t,
		ctx:      context.Background(),
		Nodes:    make(map[string]testcontainers.Container),
		ShareDir: dir,
	}
	t.Cleanup(h.Cleanup)
	return h
}

// StartBroker launches the broker role listening on a socket under the
// shared directory and mirroring to a fake downstream FPM collector
// reachable at fpmAddr.
func (h *Harness) StartBroker(fpmAddr string) testcontainers.Container {
	req := testcontainers.ContainerRequest{
		Image: ImageName,
		Cmd:   []string{"broker", "--listen", "/share/broker.sock", "--fpm-addr", fpmAddr, "-v"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = []string{h.ShareDir + ":/share"}
		},
		WaitingFor: wait.ForLog("broker daemon listening"),
		Name:       h.t.Name() + "-broker",
	}
	return h.start("broker", req)
}

// StartStatic launches the static-SID role pointed at the shared broker
// socket, reading its declarations from cfgPath on the host.
func (h *Harness) StartStatic(cfgPath string) testcontainers.Container {
	req := testcontainers.ContainerRequest{
		Image: ImageName,
		Cmd:   []string{"static", "--config", "/share/static.yaml", "--broker-socket", "/share/broker.sock", "-v"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = []string{h.ShareDir + ":/share"}
		},
		Files: []testcontainers.ContainerFile{
			{HostFilePath: cfgPath, ContainerFilePath: "/share/static.yaml", FileMode: 0o644},
		},
		WaitingFor: wait.ForLog("static daemon loaded declarations"),
		Name:       h.t.Name() + "-static",
	}
	return h.start("static", req)
}

func (h *Harness) start(name string, req testcontainers.ContainerRequest) testcontainers.Container {
	req.WaitingFor = req.WaitingFor.WithStartupTimeout(30 * time.Second)
	c, err := testcontainers.GenericContainer(h.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		h.t.Fatalf("failed to start container %s: %v", name, err)
	}
	h.mu.Lock()
	h.Nodes[name] = c
	h.mu.Unlock()
	return c
}

// Exec runs cmd inside the named node and returns its demultiplexed
// stdout/stderr.
func (h *Harness) Exec(name string, cmd []string) (string, string, error) {
	h.mu.Lock()
	c, ok := h.Nodes[name]
	h.mu.Unlock()
	if !ok {
		return "", "", fmt.Errorf("node %s not found", name)
	}
	code, r, err := c.Exec(h.ctx, cmd)
	if err != nil {
		return "", "", err
	}
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, r); err != nil {
		return "", "", err
	}
	if code != 0 {
		return stdout.String(), stderr.String(), fmt.Errorf("exit code %d: %s", code, stderr.String())
	}
	return stdout.String(), stderr.String(), nil
}

func (h *Harness) Cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, c := range h.Nodes {
		if err := c.Terminate(context.Background()); err != nil {
			h.t.Logf("failed to terminate %s: %v", name, err)
		}
	}
}
