package diagnose

// unionFind tracks connected components with path compression and union by
// size. Keys are node ids.
type unionFind struct {
	parent map[string]string
	size   map[string]int
}

func newUnionFind(nodeIDs []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(nodeIDs)),
		size:   make(map[string]int, len(nodeIDs)),
	}
	for _, id := range nodeIDs {
		uf.parent[id] = id
		uf.size[id] = 1
	}
	return uf
}

func (uf *unionFind) find(id string) string {
	root := id
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[id] != root {
		uf.parent[id], id = root, uf.parent[id]
	}
	return root
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// componentSizes returns the size of each component, unordered.
func (uf *unionFind) componentSizes() []int {
	bySize := make(map[string]int)
	for id := range uf.parent {
		bySize[uf.find(id)]++
	}
	sizes := make([]int, 0, len(bySize))
	for _, n := range bySize {
		sizes = append(sizes, n)
	}
	return sizes
}
