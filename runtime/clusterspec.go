package runtime

import (
	"fmt"
	"net/http"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/mooselang/moose/types"
)

// ClusterSpec describes the parties and replicated-placement host
// triples of a deployment: which hosts exist, where each one listens,
// and which triples of hosts form a ReplicatedPlacement. It is the
// external-collaborator loader spec.md §1 names but leaves out of
// scope; grounded on the teacher's tenant config loader, generalized
// from "tenant -> table locations" to "party -> listen address".
type ClusterSpec struct {
	Parties              []PartySpec              `json:"parties"`
	ReplicatedPlacements []ReplicatedPlacementSpec `json:"replicatedPlacements,omitempty"`
}

// PartySpec names one physical party and the base URL its
// cmd/mooseparty daemon listens on.
type PartySpec struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// ReplicatedPlacementSpec names a 3-party replicated placement by the
// party names that hold its shares, in share-rotation order.
type ReplicatedPlacementSpec struct {
	Name    string    `json:"name"`
	Players [3]string `json:"players"`
}

// LoadClusterSpec reads and parses the YAML cluster description at
// path.
func LoadClusterSpec(path string) (*ClusterSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: reading cluster spec: %w", err)
	}
	var spec ClusterSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("runtime: parsing cluster spec: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *ClusterSpec) validate() error {
	names := make(map[string]bool, len(s.Parties))
	for _, p := range s.Parties {
		if p.Name == "" {
			return fmt.Errorf("runtime: cluster spec: party with empty name")
		}
		names[p.Name] = true
	}
	for _, rp := range s.ReplicatedPlacements {
		for _, player := range rp.Players {
			if !names[player] {
				return fmt.Errorf("runtime: cluster spec: replicated placement %q references unknown party %q", rp.Name, player)
			}
		}
	}
	return nil
}

// Placements builds the placement table LoadClusterSpec's parties and
// replicated-placement triples describe: one types.HostPlacement per
// party plus one types.ReplicatedPlacement per configured triple.
func (s *ClusterSpec) Placements() []types.Placement {
	out := make([]types.Placement, 0, len(s.Parties)+len(s.ReplicatedPlacements))
	for _, p := range s.Parties {
		out = append(out, types.HostPlacement{PlacementName: p.Name})
	}
	for _, rp := range s.ReplicatedPlacements {
		out = append(out, types.ReplicatedPlacement{PlacementName: rp.Name, Players: rp.Players})
	}
	return out
}

// HTTPParties returns one HTTPParty per configured party, sharing
// client across all of them.
func (s *ClusterSpec) HTTPParties(client *http.Client) []PartyClient {
	out := make([]PartyClient, 0, len(s.Parties))
	for _, p := range s.Parties {
		out = append(out, &HTTPParty{Name: p.Name, Addr: p.Addr, Client: client})
	}
	return out
}
