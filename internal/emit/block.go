package emit

import (
	"fmt"

	"ssagen/internal/cfg"
	"ssagen/internal/diag"
	"ssagen/internal/ir"
)

// blockState is the Block record (§3): the materialized IR block plus the
// φ-node placeholder for every CFG variable that was live in the
// environment snapshot at materialization time.
type blockState struct {
	Block *ir.BasicBlock
	Phis  map[int]*ir.Phi
}

// workItem pairs a not-yet-translated CFG block with the environment
// snapshot to seed its translation (§4.4: "first-encounter determines the
// environment snapshot used for φ seeding").
type workItem struct {
	blockNo int
	env     Env
}

// funcLowering carries the state of lowering exactly one CFG into exactly
// one ir.Function: the Work-List Driver (§4.4) plus the Block Materializer
// (§4.3) it drives. It is discarded once the function is fully translated.
type funcLowering struct {
	bin     *Binary
	cfgNo   int
	cfgFn   *cfg.ControlFlowGraph
	fn      *ir.Function
	builder *ir.Builder

	blocks     map[int]*blockState
	translated map[int]bool
	queue      []workItem
}

// LowerFunction translates CFG cfgNo of bin's contract into bin's
// pre-declared ir.Function for it. It is the Work-List Driver's entry
// point (§4.4): the entry block is pre-enqueued with the parameter
// bindings, then blocks are translated in first-encounter FIFO order until
// the queue is empty.
func LowerFunction(bin *Binary, cfgNo int) {
	f := bin.Contract.CFGs[cfgNo]
	fn := bin.FunctionFor(cfgNo)
	bin.curFunction = f.Name
	log.Debugf("lowering %s (cfg %d, %d blocks, unit %s)", f.Name, cfgNo, len(f.Blocks), bin.UnitID)

	fl := &funcLowering{
		bin:        bin,
		cfgNo:      cfgNo,
		cfgFn:      f,
		fn:         fn,
		builder:    ir.NewBuilder(fn, bin.Runtime.EntryAllocas()),
		blocks:     map[int]*blockState{},
		translated: map[int]bool{},
	}

	entry := fl.builder.CreateBlock("block")
	fl.blocks[0] = &blockState{Block: entry}
	fl.builder.SetInsertPoint(entry)
	fl.queue = append(fl.queue, workItem{blockNo: 0, env: fl.paramEnv()})

	for len(fl.queue) > 0 {
		item := fl.queue[0]
		fl.queue = fl.queue[1:]
		fl.translateBlock(item.blockNo, item.env)
	}
}

// LowerContract lowers every CFG of bin's contract in declaration order and
// returns the finished IR module (§2's data flow, contract granularity).
func LowerContract(bin *Binary) *ir.Module {
	for i := range bin.Contract.CFGs {
		LowerFunction(bin, i)
	}
	return bin.Module
}

// paramEnv binds the environment's leading variable slots to the
// function's declared parameters (§4.4: "the CFG entry block is
// pre-enqueued with the parameter bindings").
func (fl *funcLowering) paramEnv() Env {
	env := NewEnv()
	for i, p := range fl.cfgFn.Params {
		env.Set(i, p.Type, fl.fn.Params[i])
	}
	return env
}

// materialize creates block blockNo on first request (§4.3): a fresh IR
// block plus one φ-node per variable bound in snapshot, over-approximating
// live-in (dead φs are expected to be cleaned up downstream). On repeat
// requests it returns the cached block unchanged, never re-snapshotting the
// environment, so the first arrival alone fixes translation's starting
// point (§4.4).
func (fl *funcLowering) materialize(blockNo int, snapshot Env) *blockState {
	if st, ok := fl.blocks[blockNo]; ok {
		return st
	}

	blk := fl.builder.CreateBlock(fmt.Sprintf("block%d", blockNo))
	st := &blockState{Block: blk, Phis: map[int]*ir.Phi{}}

	fl.builder.SetInsertPoint(blk)
	for _, varNo := range snapshot.Vars() {
		ty, val, _ := snapshot.Get(varNo)
		phi := fl.builder.CreatePhi(val.Type, fmt.Sprintf("%%v%d.b%d", varNo, blockNo))
		st.Phis[varNo] = phi
		_ = ty // the φ's IR type is taken from the snapshot value; cfg.Type isn't needed further here
	}

	fl.blocks[blockNo] = st
	fl.queue = append(fl.queue, workItem{blockNo: blockNo, env: snapshot.Clone()})
	return st
}

// branchTo materializes blockNo, wires this edge's φ incomings from env,
// and restores the builder's insertion point to the branch site (§4.3:
// materialization may switch the insertion point; wiring and the branch
// instruction itself must see the original block restored). It returns the
// target IR block for the caller to use as a branch/switch-case target.
func (fl *funcLowering) branchTo(blockNo int, env Env) *ir.BasicBlock {
	pos := fl.builder.GetInsertBlock()
	st := fl.materialize(blockNo, env)
	fl.wirePhis(st, pos, env)
	fl.builder.SetInsertPoint(pos)
	return st.Block
}

// wirePhis registers, for every φ in st, the value env currently holds for
// that variable as the incoming value from predecessor pred (§4.3, §8.3).
func (fl *funcLowering) wirePhis(st *blockState, pred *ir.BasicBlock, env Env) {
	for varNo, phi := range st.Phis {
		_, val, ok := env.Get(varNo)
		if !ok {
			fl.bin.fatalf(diag.ErrMissingPhiIncoming, "no value for v%d live into block at edge from %s", varNo, pred.Label)
			continue
		}
		phi.AddIncoming(pred, val)
	}
}

// translateBlock lowers CFG block blockNo's instructions in order (§5:
// "Instructions within a block are emitted in CFG order"), enforcing that
// each block is translated at most once (§4.4, §8.2).
func (fl *funcLowering) translateBlock(blockNo int, env Env) {
	if fl.translated[blockNo] {
		fl.bin.fatalf(diag.ErrBlockTranslatedTwice, "block %d translated more than once", blockNo)
		return
	}
	fl.translated[blockNo] = true

	st, ok := fl.blocks[blockNo]
	if !ok {
		fl.bin.fatalf(diag.ErrBlockNeverMaterialized, "block %d translated without having been materialized", blockNo)
		return
	}

	fl.bin.curBlock = blockNo
	fl.builder.SetInsertPoint(st.Block)

	// A block's own φ results shadow the snapshot's bindings for the
	// variables they cover: later instructions in this block must observe
	// the φ, not the value from whichever single predecessor happened to
	// seed the snapshot.
	for varNo, phi := range st.Phis {
		ty, _, _ := env.Get(varNo)
		env.Set(varNo, ty, phi.Res)
	}

	block := fl.cfgFn.Blocks[blockNo]
	for i, instr := range block.Instructions {
		fl.bin.curInstr = i
		fl.lowerInstr(instr, env)
	}
}
