package wire

import (
	"fmt"

	"github.com/SnellerInc/sneller/ion"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

func encodeStringList(dst *ion.Buffer, st *ion.Symtab, items []string) {
	dst.BeginList(-1)
	for _, s := range items {
		dst.WriteString(s)
	}
	dst.EndList()
}

func decodeStringList(d ion.Datum) ([]string, error) {
	lst, ok := d.List()
	if !ok {
		return nil, fmt.Errorf("wire: expected a list")
	}
	var out []string
	var ferr error
	lst.Each(func(item ion.Datum) bool {
		s, ok := item.String()
		if !ok {
			ferr = fmt.Errorf("wire: expected string in list")
			return false
		}
		out = append(out, s)
		return true
	})
	return out, ferr
}

func encodePlacement(dst *ion.Buffer, st *ion.Symtab, p types.Placement) {
	dst.BeginStruct(-1)
	dst.BeginField(st.Intern("type"))
	dst.WriteString(p.Kind())
	dst.BeginField(st.Intern("name"))
	dst.WriteString(p.Name())
	switch v := p.(type) {
	case types.HostPlacement:
	case types.ReplicatedPlacement:
		dst.BeginField(st.Intern("players"))
		encodeStringList(dst, st, v.Players[:])
	case types.MirroredPlacement:
		dst.BeginField(st.Intern("hosts"))
		encodeStringList(dst, st, v.Hosts)
	case types.MpspdzPlacement:
		dst.BeginField(st.Intern("hosts"))
		encodeStringList(dst, st, v.Hosts)
	}
	dst.EndStruct()
}

func decodePlacement(d ion.Datum) (types.Placement, error) {
	kind, ok := d.Field("type").String()
	if !ok {
		return nil, fmt.Errorf("wire: placement record missing \"type\" field")
	}
	name, ok := d.Field("name").String()
	if !ok {
		return nil, fmt.Errorf("wire: placement record missing \"name\" field")
	}
	switch kind {
	case (types.HostPlacement{}).Kind():
		return types.HostPlacement{PlacementName: name}, nil
	case (types.ReplicatedPlacement{}).Kind():
		players, err := decodeStringList(d.Field("players"))
		if err != nil {
			return nil, err
		}
		if len(players) != 3 {
			return nil, fmt.Errorf("wire: replicated placement %q: want 3 players, got %d", name, len(players))
		}
		return types.ReplicatedPlacement{PlacementName: name, Players: [3]string{players[0], players[1], players[2]}}, nil
	case (types.MirroredPlacement{}).Kind():
		hosts, err := decodeStringList(d.Field("hosts"))
		if err != nil {
			return nil, err
		}
		return types.MirroredPlacement{PlacementName: name, Hosts: hosts}, nil
	case (types.MpspdzPlacement{}).Kind():
		hosts, err := decodeStringList(d.Field("hosts"))
		if err != nil {
			return nil, err
		}
		return types.MpspdzPlacement{PlacementName: name, Hosts: hosts}, nil
	}
	return nil, &ir.UnknownPlacementType{TypeName: kind}
}
