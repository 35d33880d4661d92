package pipeline

import (
	"sort"
)

// stepGraph maps a step to the steps it depends on.
type stepGraph map[StepID][]StepID

// findCycle returns one dependency cycle in g as a closed path
// (first element repeated at the end), or nil when g is acyclic.
//
// It runs Tarjan's algorithm and reports the strongly connected component
// containing the smallest step ID, so the answer is deterministic.
func findCycle(g stepGraph) []StepID {
	var cycles [][]StepID
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(scc[0], g) {
			cycles = append(cycles, scc)
		}
	}
	if len(cycles) == 0 {
		return nil
	}
	for _, scc := range cycles {
		sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cyclePath(cycles[0], g)
}

func hasSelfLoop(node StepID, g stepGraph) bool {
	for _, dep := range g[node] {
		if dep == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components.
func tarjanSCC(g stepGraph) [][]StepID {
	var (
		index   = 0
		stack   []StepID
		indices = make(map[StepID]int)
		lowlink = make(map[StepID]int)
		onStack = make(map[StepID]bool)
		sccs    [][]StepID
	)

	var strongConnect func(StepID)
	strongConnect = func(v StepID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of a component: pop it.
		if lowlink[v] == indices[v] {
			var scc []StepID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]StepID, 0, len(g))
	for node := range g {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks dependency edges inside scc from its first member until
// it returns there.
func cyclePath(scc []StepID, g stepGraph) []StepID {
	members := make(map[StepID]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[0]
	path := []StepID{start}
	visited := map[StepID]bool{start: true}
	current := start
	for {
		var next StepID
		deps := append([]StepID(nil), g[current]...)
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
		for _, dep := range deps {
			if dep == start {
				next = dep
				break
			}
			if members[dep] && !visited[dep] && next == "" {
				next = dep
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		visited[next] = true
		current = next
	}
}
