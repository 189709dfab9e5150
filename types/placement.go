package types

import "fmt"

// Placement is the closed tagged union of logical parties (or sets of
// parties) an operation may be bound to: Host, Replicated, Mirrored,
// Mpspdz.
type Placement interface {
	Name() string
	Kind() string
	fmt.Stringer
	placement()
}

// HostPlacement is a single physical party.
type HostPlacement struct {
	PlacementName string
}

func (h HostPlacement) placement()    {}
func (h HostPlacement) Name() string  { return h.PlacementName }
func (h HostPlacement) Kind() string  { return "host.HostPlacement" }
func (h HostPlacement) String() string {
	return fmt.Sprintf("Host(%s)", h.PlacementName)
}

// ReplicatedPlacement names a 3-party replicated-sharing placement. The
// order of Players is significant: it fixes which party holds which pair
// of the 2-out-of-3 shares (spec.md §4.3).
type ReplicatedPlacement struct {
	PlacementName string
	Players       [3]string
}

func (r ReplicatedPlacement) placement()    {}
func (r ReplicatedPlacement) Name() string  { return r.PlacementName }
func (r ReplicatedPlacement) Kind() string  { return "replicated.ReplicatedPlacement" }
func (r ReplicatedPlacement) String() string {
	return fmt.Sprintf("Replicated(%s,[%s,%s,%s])", r.PlacementName, r.Players[0], r.Players[1], r.Players[2])
}

// PlayerIndex returns the 0..2 index of host in the replicated placement,
// or -1 if host is not one of its three players.
func (r ReplicatedPlacement) PlayerIndex(host string) int {
	for i, p := range r.Players {
		if p == host {
			return i
		}
	}
	return -1
}

// MirroredPlacement names a set of hosts that each independently hold a
// full (unshared) copy of the same cleartext value.
type MirroredPlacement struct {
	PlacementName string
	Hosts         []string
}

func (m MirroredPlacement) placement()    {}
func (m MirroredPlacement) Name() string  { return m.PlacementName }
func (m MirroredPlacement) Kind() string  { return "host.MirroredPlacement" }
func (m MirroredPlacement) String() string {
	return fmt.Sprintf("Mirrored(%s,%v)", m.PlacementName, m.Hosts)
}

// MpspdzPlacement names a set of hosts that evaluate an MP-SPDZ program.
type MpspdzPlacement struct {
	PlacementName string
	Hosts         []string
}

func (m MpspdzPlacement) placement()    {}
func (m MpspdzPlacement) Name() string  { return m.PlacementName }
func (m MpspdzPlacement) Kind() string  { return "mpspdz.MpspdzPlacement" }
func (m MpspdzPlacement) String() string {
	return fmt.Sprintf("Mpspdz(%s,%v)", m.PlacementName, m.Hosts)
}

// Hosts returns the set of physical host placement names this placement
// is ultimately backed by, in canonical order.
func Hosts(p Placement) []string {
	switch v := p.(type) {
	case HostPlacement:
		return []string{v.PlacementName}
	case ReplicatedPlacement:
		return []string{v.Players[0], v.Players[1], v.Players[2]}
	case MirroredPlacement:
		return v.Hosts
	case MpspdzPlacement:
		return v.Hosts
	}
	return nil
}
