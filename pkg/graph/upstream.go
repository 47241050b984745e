package graph

import "github.com/dukex/flowcanvas/pkg/models"

// DirectPredecessors returns the nodes with a connection into id, in
// connection insertion order. Each node appears once even when linked through
// several handles. An unknown id yields no nodes.
func DirectPredecessors(g models.Graph, id string) []models.Node {
	index := nodeIndex(g)
	if _, ok := index[id]; !ok {
		return nil
	}

	var (
		out  []models.Node
		seen = map[string]bool{}
	)

	for _, c := range g.Connections {
		if c.Target != id || seen[c.Source] {
			continue
		}

		n, ok := index[c.Source]
		if !ok {
			continue
		}

		seen[c.Source] = true
		out = append(out, n)
	}

	return out
}

// PredecessorIDs is DirectPredecessors reduced to ids.
func PredecessorIDs(g models.Graph, id string) []string {
	preds := DirectPredecessors(g, id)
	ids := make([]string, len(preds))

	for i, n := range preds {
		ids[i] = n.ID
	}

	return ids
}

// TransitiveUpstream walks connections backward from id and returns every
// reachable node exactly once, in depth-first order. The walk keeps a visited set so
// it terminates on cyclic graphs; id itself is never part of the result.
func TransitiveUpstream(g models.Graph, id string) []models.Node {
	index := nodeIndex(g)
	if _, ok := index[id]; !ok {
		return nil
	}

	incoming := make(map[string][]string)
	for _, c := range g.Connections {
		incoming[c.Target] = append(incoming[c.Target], c.Source)
	}

	visited := map[string]bool{id: true}

	var out []models.Node

	var visit func(string)
	visit = func(target string) {
		for _, src := range incoming[target] {
			if visited[src] {
				continue
			}

			visited[src] = true

			if n, ok := index[src]; ok {
				out = append(out, n)
			}

			visit(src)
		}
	}

	visit(id)

	return out
}

// IsUpstream reports whether candidate is transitively upstream of id.
func IsUpstream(g models.Graph, id, candidate string) bool {
	for _, n := range TransitiveUpstream(g, id) {
		if n.ID == candidate {
			return true
		}
	}

	return false
}

func nodeIndex(g models.Graph) map[string]models.Node {
	index := make(map[string]models.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = n
		}
	}

	return index
}
