// Package outofssa renames the SSA-numbered program back to one name per
// variable and deletes phi instructions, a close port of
// original_source/src/SSA.cpp::renameSSA.
package outofssa

import (
	"mina/internal/cfg"
	"mina/internal/ir"
)

// Rename walks entry's reachable blocks, collapses every phi-web to a
// single canonical name via a string-keyed DSU, then rewrites every
// instruction's target and renameable operands to that canonical name,
// deleting all Phi instructions. Mutates the program in place.
func Rename(entry *cfg.Block) {
	dsu := newDSU()
	var variables []string

	for _, block := range bfs(entry) {
		for _, inst := range block.Instructions {
			if inst.Target == "" {
				continue
			}
			dsu.makeSet(inst.Target)
			variables = append(variables, inst.Target)

			if inst.IsPhi() {
				for _, op := range inst.Operands {
					if op.Target == "" {
						continue
					}
					dsu.unite(inst.Target, op.Target)
				}
			}
		}
	}

	rootToNewName := make(map[string]string)
	for _, v := range variables {
		root := dsu.find(v)
		if _, ok := rootToNewName[root]; !ok {
			rootToNewName[root] = baseNameOf(root)
		}
	}
	finalRename := make(map[string]string, len(variables))
	for _, v := range variables {
		finalRename[v] = rootToNewName[dsu.find(v)]
	}

	for _, block := range bfs(entry) {
		var kept []*ir.Instruction
		for _, inst := range block.Instructions {
			if inst.IsPhi() {
				continue
			}
			if newName, ok := finalRename[inst.Target]; ok {
				inst.Target = newName
			}
			for _, op := range inst.Operands {
				if !op.Renameable {
					continue
				}
				if newName, ok := finalRename[op.Target]; ok {
					op.Target = newName
				}
			}
			kept = append(kept, inst)
		}
		block.Instructions = kept
	}
}

// bfs returns every block reachable from entry, in breadth-first order.
func bfs(entry *cfg.Block) []*cfg.Block {
	var order []*cfg.Block
	visited := map[*cfg.Block]bool{entry: true}
	queue := []*cfg.Block{entry}
	for len(queue) > 0 {
		block := queue[0]
		queue = queue[1:]
		order = append(order, block)
		for _, succ := range block.Succs {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return order
}

// baseNameOf strips the ".<counter>" SSA suffix, matching ssa.baseName's
// convention: everything before the first '.'.
func baseNameOf(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
