package broker

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"
)

// AddLocalSID is the outbound ADD_LOCALSID request: a SID address, its
// wire action, the outgoing interface, and whichever context fields the
// behavior requires.
type AddLocalSID struct {
	Address netip.Addr
	Action  uint16
	OIF     string

	HasNH4 bool
	NH4    netip.Addr
	HasNH6 bool
	NH6    netip.Addr

	HasTable bool
	TableID  uint32
	VRFName  string

	NextCSID    bool
	BlockLen    uint8
	NodeLen     uint8
	FunctionLen uint8
	ArgumentLen uint8
}

const (
	flagHasNH4 = 1 << iota
	flagHasNH6
	flagHasTable
	flagNextCSID
)

// Marshal encodes m into an AddLocalSID payload.
func (m AddLocalSID) Marshal() []byte {
	var buf bytes.Buffer
	addr := m.Address.As16()
	buf.Write(addr[:])
	_ = binary.Write(&buf, binary.BigEndian, m.Action)
	writeString(&buf, m.OIF)

	var flags byte
	if m.HasNH4 {
		flags |= flagHasNH4
	}
	if m.HasNH6 {
		flags |= flagHasNH6
	}
	if m.HasTable {
		flags |= flagHasTable
	}
	if m.NextCSID {
		flags |= flagNextCSID
	}
	buf.WriteByte(flags)

	if m.HasNH4 {
		b := m.NH4.As4()
		buf.Write(b[:])
	}
	if m.HasNH6 {
		b := m.NH6.As16()
		buf.Write(b[:])
	}
	if m.HasTable {
		_ = binary.Write(&buf, binary.BigEndian, m.TableID)
		writeString(&buf, m.VRFName)
	}
	if m.NextCSID {
		buf.WriteByte(m.BlockLen)
		buf.WriteByte(m.NodeLen)
		buf.WriteByte(m.FunctionLen)
		buf.WriteByte(m.ArgumentLen)
	}
	return buf.Bytes()
}

// UnmarshalAddLocalSID decodes an AddLocalSID payload.
func UnmarshalAddLocalSID(payload []byte) (AddLocalSID, error) {
	r := bytes.NewReader(payload)
	var m AddLocalSID

	var addrBytes [16]byte
	if _, err := r.Read(addrBytes[:]); err != nil {
		return m, err
	}
	m.Address = netip.AddrFrom16(addrBytes)

	if err := binary.Read(r, binary.BigEndian, &m.Action); err != nil {
		return m, err
	}
	oif, err := readString(r)
	if err != nil {
		return m, err
	}
	m.OIF = oif

	flags, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.HasNH4 = flags&flagHasNH4 != 0
	m.HasNH6 = flags&flagHasNH6 != 0
	m.HasTable = flags&flagHasTable != 0
	m.NextCSID = flags&flagNextCSID != 0

	if m.HasNH4 {
		var b [4]byte
		if _, err := r.Read(b[:]); err != nil {
			return m, err
		}
		m.NH4 = netip.AddrFrom4(b)
	}
	if m.HasNH6 {
		var b [16]byte
		if _, err := r.Read(b[:]); err != nil {
			return m, err
		}
		m.NH6 = netip.AddrFrom16(b)
	}
	if m.HasTable {
		if err := binary.Read(r, binary.BigEndian, &m.TableID); err != nil {
			return m, err
		}
		vrf, err := readString(r)
		if err != nil {
			return m, err
		}
		m.VRFName = vrf
	}
	if m.NextCSID {
		var lens [4]byte
		if _, err := r.Read(lens[:]); err != nil {
			return m, err
		}
		m.BlockLen, m.NodeLen, m.FunctionLen, m.ArgumentLen = lens[0], lens[1], lens[2], lens[3]
	}
	return m, nil
}

// DelLocalSID is the outbound DEL_LOCALSID request.
type DelLocalSID struct {
	Address netip.Addr
	OIF     string
}

func (m DelLocalSID) Marshal() []byte {
	var buf bytes.Buffer
	addr := m.Address.As16()
	buf.Write(addr[:])
	writeString(&buf, m.OIF)
	return buf.Bytes()
}

func UnmarshalDelLocalSID(payload []byte) (DelLocalSID, error) {
	r := bytes.NewReader(payload)
	var m DelLocalSID
	var addrBytes [16]byte
	if _, err := r.Read(addrBytes[:]); err != nil {
		return m, err
	}
	m.Address = netip.AddrFrom16(addrBytes)
	oif, err := readString(r)
	if err != nil {
		return m, err
	}
	m.OIF = oif
	return m, nil
}

// VRFNotify is the payload shape shared by VRF_UP and VRF_DOWN.
type VRFNotify struct {
	Name    string
	TableID uint32
}

func (m VRFNotify) Marshal() []byte {
	var buf bytes.Buffer
	writeString(&buf, m.Name)
	_ = binary.Write(&buf, binary.BigEndian, m.TableID)
	return buf.Bytes()
}

func UnmarshalVRFNotify(payload []byte) (VRFNotify, error) {
	r := bytes.NewReader(payload)
	var m VRFNotify
	name, err := readString(r)
	if err != nil {
		return m, err
	}
	m.Name = name
	if err := binary.Read(r, binary.BigEndian, &m.TableID); err != nil {
		return m, err
	}
	return m, nil
}

// InterfaceNotify is the payload shape shared by INTERFACE_UP and
// INTERFACE_DOWN.
type InterfaceNotify struct {
	Name string
}

func (m InterfaceNotify) Marshal() []byte {
	var buf bytes.Buffer
	writeString(&buf, m.Name)
	return buf.Bytes()
}

func UnmarshalInterfaceNotify(payload []byte) (InterfaceNotify, error) {
	name, err := readString(bytes.NewReader(payload))
	if err != nil {
		return InterfaceNotify{}, err
	}
	return InterfaceNotify{Name: name}, nil
}

// RouteNotifyOwner reports the outcome of a previously requested route
// install or delete.
type RouteNotifyOwner struct {
	Address netip.Addr
	Outcome Outcome
}

func (m RouteNotifyOwner) Marshal() []byte {
	var buf bytes.Buffer
	addr := m.Address.As16()
	buf.Write(addr[:])
	buf.WriteByte(byte(m.Outcome))
	return buf.Bytes()
}

func UnmarshalRouteNotifyOwner(payload []byte) (RouteNotifyOwner, error) {
	if len(payload) != 17 {
		return RouteNotifyOwner{}, fmt.Errorf("broker: malformed ROUTE_NOTIFY_OWNER payload (%d bytes)", len(payload))
	}
	var addrBytes [16]byte
	copy(addrBytes[:], payload[:16])
	return RouteNotifyOwner{
		Address: netip.AddrFrom16(addrBytes),
		Outcome: Outcome(payload[16]),
	}, nil
}
