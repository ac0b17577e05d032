package merge

import (
	"sort"
	"strings"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

type edgeKey struct {
	source, target int64
	connectionType model.ConnectionType
}

// collapseConnections finds edges that share source, target and type. Of each such group the
// strongest edge survives, ties going to the oldest; it takes the union of the group's notes and
// is bidirectional if any edge of the group was. Self edges are always removed. The result lists
// the survivors that changed and the ids of the edges to delete.
func collapseConnections(edges []model.Connection) (updated []model.Connection, removed []int64) {
	sorted := make([]model.Connection, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Id < sorted[j].Id })

	groups := map[edgeKey][]model.Connection{}
	var order []edgeKey
	for _, edge := range sorted {
		if edge.SourceContactId == edge.TargetContactId {
			removed = append(removed, edge.Id)
			continue
		}
		key := edgeKey{edge.SourceContactId, edge.TargetContactId, edge.ConnectionType}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], edge)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			continue
		}
		keeper := group[0]
		for _, edge := range group[1:] {
			if edge.Strength > keeper.Strength {
				keeper = edge
			}
		}
		notes := make([]*string, 0, len(group))
		for _, edge := range group {
			keeper.Bidirectional = keeper.Bidirectional || edge.Bidirectional
			notes = append(notes, edge.Notes)
			if edge.Id != keeper.Id {
				removed = append(removed, edge.Id)
			}
		}
		keeper.Notes = mergeNotes(notes)
		updated = append(updated, keeper)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return updated, removed
}

// mergeNotes concatenates the distinct non-empty lines of all notes, in order of appearance.
func mergeNotes(notes []*string) *string {
	seen := map[string]bool{}
	var lines []string
	for _, note := range notes {
		if note == nil {
			continue
		}
		for _, line := range strings.Split(*note, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	merged := strings.Join(lines, "\n")
	return &merged
}
