package graph

// FindNode returns the first node with the given id.
// The boolean is false when no node matches; missing ids are an expected case
// (stale or malformed click payloads), so this never panics.
func FindNode(nodes []Node, id string) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return Node{}, false
}

// FindParents returns the ids of the sources of edges pointing at id, in edge
// order, together with the matching nodes in node order.
// Both results are empty when the node has no parents.
func FindParents(id string, nodes []Node, edges []Edge) ([]string, []Node) {
	var ids []string
	set := make(map[string]struct{})
	for _, e := range edges {
		if e.Target != id {
			continue
		}
		if _, ok := set[e.Source]; !ok {
			set[e.Source] = struct{}{}
			ids = append(ids, e.Source)
		}
	}
	return ids, selectNodes(nodes, set)
}

// FindChildren returns the ids of the targets of edges leaving id, the
// matching nodes in node order, and the edges leaving id in edge order.
// All results are empty when the node has no children.
func FindChildren(id string, nodes []Node, edges []Edge) ([]string, []Node, []Edge) {
	var (
		ids        []string
		childEdges []Edge
	)
	set := make(map[string]struct{})
	for _, e := range edges {
		if e.Source != id {
			continue
		}
		childEdges = append(childEdges, e.Clone())
		if _, ok := set[e.Target]; !ok {
			set[e.Target] = struct{}{}
			ids = append(ids, e.Target)
		}
	}
	return ids, selectNodes(nodes, set), childEdges
}

func selectNodes(nodes []Node, ids map[string]struct{}) []Node {
	if len(ids) == 0 {
		return nil
	}
	var out []Node
	for _, n := range nodes {
		if _, ok := ids[n.ID]; ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// FindRoots returns the ids of nodes that are not the target of any edge,
// in node order. Runs in O(N+E).
func FindRoots(nodes []Node, edges []Edge) []string {
	targets := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		targets[e.Target] = struct{}{}
	}

	roots := make([]string, 0, len(nodes))
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, isTarget := targets[n.ID]; isTarget {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		roots = append(roots, n.ID)
	}
	return roots
}

// Subtree extracts everything reachable from id by following outgoing edges.
//
// Nodes are returned in depth-first pre-order and edges in the order they were
// traversed. Every traversed edge is included, including edges into nodes that
// were already visited (shared children). A visited set guards against cycles,
// so the traversal terminates on any input. If id is not a node, the result
// holds no nodes but still lists the edges leaving id.
func Subtree(id string, nodes []Node, edges []Edge) ([]Node, []Edge) {
	byID := make(map[string]int, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		byID[nodes[i].ID] = i
	}
	out := outgoing(edges)

	var (
		subNodes []Node
		subEdges []Edge
	)
	visited := make(map[string]struct{})
	visit := func(v string) {
		visited[v] = struct{}{}
		if i, ok := byID[v]; ok {
			subNodes = append(subNodes, nodes[i].Clone())
		}
	}

	type frame struct {
		id   string
		next int
	}

	visit(id)
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		pending := out[top.id]
		if top.next >= len(pending) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := edges[pending[top.next]]
		top.next++

		subEdges = append(subEdges, e.Clone())
		if _, seen := visited[e.Target]; !seen {
			visit(e.Target)
			stack = append(stack, frame{id: e.Target})
		}
	}
	return subNodes, subEdges
}

// outgoing indexes edges by source, preserving edge order.
func outgoing(edges []Edge) map[string][]int {
	out := make(map[string][]int)
	for i, e := range edges {
		out[e.Source] = append(out[e.Source], i)
	}
	return out
}
