package ir

import (
	"github.com/pkg/errors"
)

// Verify checks the structural invariants the emitter promises for every
// lowered function (§8.1 SSA validity's block-level portion, §8.3 φ
// completeness): every block ends in exactly one terminator, every branch
// target belongs to the function, and every φ has exactly one incoming
// value per predecessor edge.
func Verify(fn *Function) error {
	if fn.Declared() {
		return nil
	}

	blocks := make(map[*BasicBlock]bool, len(fn.Blocks))
	for _, blk := range fn.Blocks {
		blocks[blk] = true
	}

	preds := make(map[*BasicBlock][]*BasicBlock)
	for _, blk := range fn.Blocks {
		if blk.Terminator == nil {
			return errors.Errorf("verify %s: block %s has no terminator", fn.Name, blk.Label)
		}
		for _, succ := range blk.Terminator.Successors() {
			if !blocks[succ] {
				return errors.Errorf("verify %s: block %s branches to %s, which is not a block of this function", fn.Name, blk.Label, succ.Label)
			}
			preds[succ] = appendUnique(preds[succ], blk)
		}
	}

	for _, blk := range fn.Blocks {
		for _, phi := range blk.Phis {
			if len(phi.Incoming) != len(preds[blk]) {
				return errors.Errorf("verify %s: phi %s in block %s has %d incomings for %d predecessors",
					fn.Name, phi.Res.Name, blk.Label, len(phi.Incoming), len(preds[blk]))
			}
			for _, pred := range preds[blk] {
				if phi.Incoming[pred] == nil {
					return errors.Errorf("verify %s: phi %s in block %s has no incoming from predecessor %s",
						fn.Name, phi.Res.Name, blk.Label, pred.Label)
				}
			}
		}
	}
	return nil
}

// VerifyModule verifies every function of m.
func VerifyModule(m *Module) error {
	for _, fn := range m.Functions {
		if err := Verify(fn); err != nil {
			return err
		}
	}
	return nil
}

func appendUnique(list []*BasicBlock, blk *BasicBlock) []*BasicBlock {
	for _, b := range list {
		if b == blk {
			return list
		}
	}
	return append(list, blk)
}
