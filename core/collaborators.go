package core

// Collaborators is the Installation Controller's view onto the external
// resources a SID's validity and installation depend on: VRF and
// interface liveness, as reported by the Forwarding Broker Client's
// notification stream (§4.6). The controller never talks to the kernel
// directly; it only ever asks this interface, which core.State keeps
// up to date from broker VRF_UP/VRF_DOWN/INTERFACE_UP/INTERFACE_DOWN
// events.
type Collaborators interface {
	// VRFActive reports whether name is a live VRF, and its table id if so.
	VRFActive(name string) (tableID uint32, active bool)
	// InterfaceExists reports whether name is a currently known interface.
	InterfaceExists(name string) bool
	// DefaultInterface returns the first non-loopback interface known to
	// the broker, used as the outgoing-interface fallback when a SID has
	// neither an explicit interface nor a VRF attribute.
	DefaultInterface() (name string, ok bool)
}

// ResourceSet is the default, in-memory Collaborators implementation: a
// plain map-backed registry of VRFs and interfaces kept current by the
// broker-event handlers in daemon/listen.go.
type ResourceSet struct {
	vrfs       map[string]uint32
	interfaces map[string]bool
	// ifaceOrder preserves the order interfaces were learned in, so
	// DefaultInterface is deterministic instead of map-iteration order.
	ifaceOrder []string
}

// NewResourceSet constructs an empty collaborator set.
func NewResourceSet() *ResourceSet {
	return &ResourceSet{
		vrfs:       make(map[string]uint32),
		interfaces: make(map[string]bool),
	}
}

func (r *ResourceSet) VRFActive(name string) (uint32, bool) {
	id, ok := r.vrfs[name]
	return id, ok
}

func (r *ResourceSet) InterfaceExists(name string) bool {
	return r.interfaces[name]
}

func (r *ResourceSet) DefaultInterface() (string, bool) {
	for _, name := range r.ifaceOrder {
		if name == "lo" || name == "loopback" {
			continue
		}
		if r.interfaces[name] {
			return name, true
		}
	}
	return "", false
}

// VRFUp and VRFDown apply a broker VRF lifecycle notification.
func (r *ResourceSet) VRFUp(name string, tableID uint32) { r.vrfs[name] = tableID }
func (r *ResourceSet) VRFDown(name string)               { delete(r.vrfs, name) }

// InterfaceUp and InterfaceDown apply a broker interface lifecycle
// notification.
func (r *ResourceSet) InterfaceUp(name string) {
	if !r.interfaces[name] {
		r.ifaceOrder = append(r.ifaceOrder, name)
	}
	r.interfaces[name] = true
}

func (r *ResourceSet) InterfaceDown(name string) {
	r.interfaces[name] = false
}
