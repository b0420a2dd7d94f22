package broker

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"
)

// FakeClient is a recording test double for the broker protocol,
// grounded on the teacher's RouterHarness/HarnessEvents pattern: it
// captures every outbound ADD_LOCALSID/DEL_LOCALSID call in order so
// tests can assert on exact message sequences without a real socket.
type FakeClient struct {
	Calls []FakeCall

	// FailAddresses, if set, makes AddLocalSID/DelLocalSID for any
	// listed address return a send failure instead of recording the
	// call, for exercising the controller's retry-on-failure path.
	FailAddresses map[netip.Addr]bool
}

// FakeCall is one recorded outbound request.
type FakeCall struct {
	Kind    string // "ADD_LOCALSID" or "DEL_LOCALSID"
	Address netip.Addr
	Action  uint16
	OIF     string
}

func (f *FakeCall) String() string {
	return fmt.Sprintf("%s %s action=%d oif=%s", f.Kind, f.Address, f.Action, f.OIF)
}

func NewFakeClient() *FakeClient {
	return &FakeClient{FailAddresses: make(map[netip.Addr]bool)}
}

func (f *FakeClient) AddLocalSID(m AddLocalSID) error {
	if f.FailAddresses[m.Address] {
		return fmt.Errorf("broker: fake send failure for %s", m.Address)
	}
	f.Calls = append(f.Calls, FakeCall{Kind: "ADD_LOCALSID", Address: m.Address, Action: m.Action, OIF: m.OIF})
	return nil
}

func (f *FakeClient) DelLocalSID(m DelLocalSID) error {
	if f.FailAddresses[m.Address] {
		return fmt.Errorf("broker: fake send failure for %s", m.Address)
	}
	f.Calls = append(f.Calls, FakeCall{Kind: "DEL_LOCALSID", Address: m.Address, OIF: m.OIF})
	return nil
}

// Drain returns every call recorded so far and resets the log, the same
// "take a snapshot, clear it" contract as the teacher's GetActions.
func (f *FakeClient) Drain() []FakeCall {
	calls := f.Calls
	f.Calls = nil
	return calls
}

func (f *FakeClient) String() string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}

// CountsFor returns the number of ADD_LOCALSID and DEL_LOCALSID calls
// recorded for addr, the primitive the §8 "ADD count equals DEL count"
// invariant test is built from.
func (f *FakeClient) CountsFor(addr netip.Addr) (adds, dels int) {
	for _, c := range f.Calls {
		if c.Address != addr {
			continue
		}
		switch c.Kind {
		case "ADD_LOCALSID":
			adds++
		case "DEL_LOCALSID":
			dels++
		}
	}
	return
}
