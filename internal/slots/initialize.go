// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"fmt"

	"github.com/rafagsiqueira/slotgraph/internal/dag"
)

// Initialize primes the slot's container and everything it
// transitively depends on, in dependency order, so that no container
// computes outputs before all of its own inputs have valid data. It
// must run before any expression on the slot is read externally.
//
// A detached tree (no container owner anywhere up the parent chain)
// just gets its own recompute pass.
func (s *Slot) Initialize() error {
	owner := s.Owner()
	if owner == nil {
		return recompute(s.Root(), false)
	}
	return InitializeContainers(owner)
}

// InitializeContainers primes the given containers and their combined
// upstream closures: every container reachable by following input
// links toward producers. Containers with no unresolved dependencies
// prime first, then their dependents, walking the dependency graph in
// topological order.
func InitializeContainers(containers ...Container) error {
	var g dag.AcyclicGraph

	seen := make(map[Container]struct{})
	var visit func(c Container)
	visit = func(c Container) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		g.Add(c)

		for i := 0; i < c.NumInputSlots(); i++ {
			root := c.InputSlot(i)
			if root == nil {
				continue
			}
			root.walk(func(t *Slot) {
				for _, peer := range t.links {
					if producer := peer.Owner(); producer != nil {
						g.Connect(dag.BasicEdge(c, producer))
						visit(producer)
					}
				}
			})
		}
	}
	for _, c := range containers {
		if c != nil {
			visit(c)
		}
	}

	// Dependencies first. A cycle here means link validation was
	// bypassed; recomputation would never terminate on such a graph.
	order, err := g.TopologicalOrder()
	if err != nil {
		return fmt.Errorf("container dependency graph is not acyclic: %w", err)
	}

	for _, v := range order {
		c := v.(Container)
		logger.Trace("initializing container", "container", dag.VertexName(c))
		for i := 0; i < c.NumInputSlots(); i++ {
			if root := c.InputSlot(i); root != nil {
				if err := recompute(root.Root(), false); err != nil {
					return err
				}
			}
		}
		c.UpdateOutputs()
	}
	return nil
}
