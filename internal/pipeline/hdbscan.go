package pipeline

import (
	"math"
	"sort"

	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// HDBSCAN is hierarchical density based clustering over euclidean mutual
// reachability distances with excess-of-mass cluster selection. Points that
// belong to no selected cluster are labelled -1.
type HDBSCAN struct {
	MinClusterSize int
	// MinSamples sets the core distance neighbourhood; 0 means MinClusterSize.
	MinSamples int
}

type mstEdge struct {
	a, b   int
	weight float64
}

// linkage is a single-linkage tree. Leaves are 0..n-1; merge i creates node n+i.
type linkage struct {
	left, right []int
	dist        []float64
	size        []int
}

type condensedEdge struct {
	parent  int
	child   int
	lambda  float64
	size    int
	cluster bool
}

// condensedTree holds cluster ids 0..clusters-1 with 0 as the root. Child clusters
// always carry larger ids than their parent.
type condensedTree struct {
	edges    []condensedEdge
	clusters int
}

// Fit returns a cluster label per row, -1 for noise
func (h HDBSCAN) Fit(x *mat.Dense) ([]int, error) {
	n, _ := x.Dims()
	mcs := h.MinClusterSize
	if mcs < 2 || mcs > n {
		return nil, errors.Newf(errors.CodeValidationError, "HDBSCAN needs 2 <= min cluster size <= %d, got %d", n, mcs)
	}
	minPts := h.MinSamples
	if minPts < 1 {
		minPts = mcs
	}
	if minPts > n {
		minPts = n
	}

	dist := pairwiseDistances(x)
	core := coreDistances(dist, minPts)
	tree := singleLinkage(n, primMST(dist, core))
	ct := condense(tree, n, mcs)
	selected := ct.selectClusters()
	labels := ct.label(n, selected)

	logger.Trace("hdbscan: %d rows, min cluster size %d, %d condensed clusters", n, mcs, ct.clusters)
	return labels, nil
}

func pairwiseDistances(x *mat.Dense) [][]float64 {
	n, _ := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(rows[i], rows[j], 2)
			dist[i][j], dist[j][i] = d, d
		}
	}
	return dist
}

// coreDistances is the distance to the minPts-th nearest neighbour, counting the
// point itself.
func coreDistances(dist [][]float64, minPts int) []float64 {
	core := make([]float64, len(dist))
	sorted := make([]float64, len(dist))
	for i, row := range dist {
		copy(sorted, row)
		sort.Float64s(sorted)
		core[i] = sorted[minPts-1]
	}
	return core
}

// primMST builds the minimum spanning tree of the mutual reachability graph and
// returns its edges by ascending weight.
func primMST(dist [][]float64, core []float64) []mstEdge {
	n := len(dist)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[current] = true
	for len(edges) < n-1 {
		next, nextWeight := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			w := math.Max(dist[current][j], math.Max(core[current], core[j]))
			if w < best[j] {
				best[j], from[j] = w, current
			}
			if best[j] < nextWeight {
				next, nextWeight = j, best[j]
			}
		}
		inTree[next] = true
		edges = append(edges, mstEdge{a: from[next], b: next, weight: nextWeight})
		current = next
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })
	return edges
}

func singleLinkage(n int, edges []mstEdge) linkage {
	total := 2*n - 1
	parent := make([]int, total)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	l := linkage{size: make([]int, total)}
	for i := 0; i < n; i++ {
		l.size[i] = 1
	}
	node := n
	for _, e := range edges {
		a, b := find(e.a), find(e.b)
		parent[a], parent[b] = node, node
		l.size[node] = l.size[a] + l.size[b]
		l.left = append(l.left, a)
		l.right = append(l.right, b)
		l.dist = append(l.dist, e.weight)
		node++
	}
	return l
}

func (l linkage) leaves(node, n int) []int {
	var out []int
	stack := []int{node}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top < n {
			out = append(out, top)
			continue
		}
		stack = append(stack, l.left[top-n], l.right[top-n])
	}
	return out
}

func lambdaOf(d float64) float64 {
	if d <= 0 {
		return math.MaxFloat64
	}
	return 1 / d
}

// condense walks the single-linkage tree from the root. A split where both sides
// hold at least mcs points creates two child clusters; smaller sides fall out of
// the current cluster as individual points.
func condense(l linkage, n, mcs int) condensedTree {
	root := 2*n - 2
	ct := condensedTree{clusters: 1}
	label := map[int]int{root: 0}
	stack := []int{root}

	fallOut := func(parent, node int, lambda float64) {
		for _, p := range l.leaves(node, n) {
			ct.edges = append(ct.edges, condensedEdge{parent: parent, child: p, lambda: lambda, size: 1})
		}
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node < n {
			continue
		}
		i := node - n
		left, right := l.left[i], l.right[i]
		lambda := lambdaOf(l.dist[i])
		parent := label[node]
		leftSize, rightSize := l.size[left], l.size[right]

		switch {
		case leftSize >= mcs && rightSize >= mcs:
			for _, child := range []int{left, right} {
				id := ct.clusters
				ct.clusters++
				label[child] = id
				ct.edges = append(ct.edges, condensedEdge{parent: parent, child: id, lambda: lambda, size: l.size[child], cluster: true})
				stack = append(stack, child)
			}
		case leftSize < mcs && rightSize < mcs:
			fallOut(parent, left, lambda)
			fallOut(parent, right, lambda)
		default:
			small, big := left, right
			if leftSize >= mcs {
				small, big = right, left
			}
			fallOut(parent, small, lambda)
			label[big] = parent
			stack = append(stack, big)
		}
	}
	return ct
}

func (ct condensedTree) children() [][]int {
	children := make([][]int, ct.clusters)
	for _, e := range ct.edges {
		if e.cluster {
			children[e.parent] = append(children[e.parent], e.child)
		}
	}
	return children
}

// selectClusters applies excess-of-mass selection. The root is never selected.
func (ct condensedTree) selectClusters() []bool {
	birth := make([]float64, ct.clusters)
	for _, e := range ct.edges {
		if e.cluster {
			birth[e.child] = e.lambda
		}
	}
	stability := make([]float64, ct.clusters)
	for _, e := range ct.edges {
		stability[e.parent] += (e.lambda - birth[e.parent]) * float64(e.size)
	}

	children := ct.children()
	selected := make([]bool, ct.clusters)
	var deselect func(c int)
	deselect = func(c int) {
		for _, child := range children[c] {
			selected[child] = false
			deselect(child)
		}
	}

	for c := ct.clusters - 1; c >= 1; c-- {
		childSum := 0.0
		for _, child := range children[c] {
			childSum += stability[child]
		}
		if len(children[c]) > 0 && childSum > stability[c] {
			stability[c] = childSum
			continue
		}
		selected[c] = true
		deselect(c)
	}
	return selected
}

// label assigns each point to the nearest selected ancestor of the cluster it fell
// out of. Labels are numbered in order of first appearance.
func (ct condensedTree) label(n int, selected []bool) []int {
	clusterParent := make([]int, ct.clusters)
	clusterParent[0] = -1
	pointParent := make([]int, n)
	for _, e := range ct.edges {
		if e.cluster {
			clusterParent[e.child] = e.parent
		} else {
			pointParent[e.child] = e.parent
		}
	}

	ids := make(map[int]int)
	labels := make([]int, n)
	for p := 0; p < n; p++ {
		c := pointParent[p]
		for c >= 0 && !selected[c] {
			c = clusterParent[c]
		}
		if c < 0 {
			labels[p] = -1
			continue
		}
		id, ok := ids[c]
		if !ok {
			id = len(ids)
			ids[c] = id
		}
		labels[p] = id
	}
	return labels
}
