package runtime_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mooselang/moose/runtime"
)

const testClusterYAML = `
parties:
  - name: alice
    addr: https://alice.example:7000
  - name: bob
    addr: https://bob.example:7000
  - name: carol
    addr: https://carol.example:7000
replicatedPlacements:
  - name: mpc
    players: [alice, bob, carol]
`

func writeClusterSpec(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadClusterSpec(t *testing.T) {
	path := writeClusterSpec(t, testClusterYAML)
	spec, err := runtime.LoadClusterSpec(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Parties) != 3 {
		t.Fatalf("got %d parties, want 3", len(spec.Parties))
	}
	placements := spec.Placements()
	if len(placements) != 4 {
		t.Fatalf("got %d placements, want 4 (3 hosts + 1 replicated)", len(placements))
	}
	parties := spec.HTTPParties(nil)
	if len(parties) != 3 {
		t.Fatalf("got %d http parties, want 3", len(parties))
	}
}

func TestLoadClusterSpecRejectsUnknownPlayer(t *testing.T) {
	path := writeClusterSpec(t, `
parties:
  - name: alice
    addr: https://alice.example:7000
replicatedPlacements:
  - name: mpc
    players: [alice, bob, carol]
`)
	if _, err := runtime.LoadClusterSpec(path); err == nil {
		t.Fatal("expected an error for a replicated placement referencing an unknown party")
	}
}
