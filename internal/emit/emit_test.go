package emit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssagen/internal/asm"
	"ssagen/internal/cfg"
	"ssagen/internal/ir"
	"ssagen/internal/runtime"
)

func substrateBinary(contract *cfg.Contract) *Binary {
	rt := runtime.NewSubstrate(&ir.Module{})
	ns := &cfg.Namespace{Target: cfg.Substrate, AddressLength: 20, SlotWidth: 64}
	return NewBinary(ns, contract, rt)
}

func solanaBinary(contract *cfg.Contract) *Binary {
	rt := runtime.NewSolana(&ir.Module{})
	ns := &cfg.Namespace{Target: cfg.Solana, AddressLength: 32, SlotWidth: 64}
	return NewBinary(ns, contract, rt)
}

func u64() cfg.Type   { return &cfg.IntTy{Bits: 64} }
func u8() cfg.Type    { return &cfg.IntTy{Bits: 8} }
func boolT() cfg.Type { return &cfg.BoolTy{} }

func singleCFGContract(f *cfg.ControlFlowGraph) *cfg.Contract {
	return &cfg.Contract{Name: "c", CFGs: []*cfg.ControlFlowGraph{f}}
}

// E1: Return{[]} lowers to a single IR block ending in `ret Success`.
func TestE1BareReturnIsSingleBlockRetSuccess(t *testing.T) {
	f := &cfg.ControlFlowGraph{
		Name:   "f",
		Blocks: []*cfg.Block{{Instructions: []cfg.Instr{&cfg.Return{}}}},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	require.Len(t, fn.Blocks, 1)
	ret, ok := fn.Blocks[0].Terminator.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, "0", ret.Val.Name)
}

// E2: one u64 param, one u64 return, entry block Return{[Param(0)]}: the
// lowered function gains a second (pointer) parameter, stores into it, then
// returns Success.
func TestE2ParamAndReturnStoresThroughOutPointer(t *testing.T) {
	f := &cfg.ControlFlowGraph{
		Name:    "f",
		Params:  []cfg.Parameter{{Name: "a", Type: u64()}},
		Returns: []cfg.Parameter{{Type: u64()}},
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Return{Values: []cfg.Expression{&cfg.Variable{VarNo: 0, Ty: u64()}}},
			},
		}},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	require.Len(t, fn.Params, 2)
	_, isInt := fn.Params[0].Type.(*ir.IntType)
	require.True(t, isInt)
	outPtr, isPtr := fn.Params[1].Type.(*ir.PointerType)
	require.True(t, isPtr)
	assert.Equal(t, ir.I64, outPtr.Elem)

	require.Len(t, fn.Blocks, 1)
	require.Len(t, fn.Blocks[0].Instructions, 1)
	store, ok := fn.Blocks[0].Instructions[0].(*ir.Store)
	require.True(t, ok)
	assert.Equal(t, fn.Params[1], store.Ptr)
	assert.Equal(t, fn.Params[0], store.Val)

	ret, ok := fn.Blocks[0].Terminator.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, "0", ret.Val.Name)
}

// E3: push 7 onto a u8[] then pop it back off. The realloc'ed-growth and
// realloc'ed-shrink paths both run, and PopMemory's empty-vector guard
// materializes its own conditional branch (§4.5).
func TestE3PushThenPopReallocsTwiceAndGuardsEmpty(t *testing.T) {
	arrTy := &cfg.ArrayTy{Elem: u8()}
	f := &cfg.ControlFlowGraph{
		Name: "f",
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Set{Res: 0, Expr: &cfg.Undefined{Ty: arrTy}},
				&cfg.PushMemory{Res: 1, Ty: arrTy, Array: 0, Value: &cfg.NumberLiteral{Ty: u8(), Value: 7}},
				&cfg.PopMemory{Res: 2, Ty: arrTy, Array: 0},
				&cfg.Return{},
			},
		}},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	require.Len(t, fn.Blocks, 3, "entry + pop.empty + pop.ok")

	entry := fn.Blocks[0]
	cond, ok := entry.Terminator.(*ir.CondBr)
	require.True(t, ok, "PopMemory's empty-check must terminate the entry block")

	var reallocCalls int
	for _, i := range entry.Instructions {
		if c, ok := i.(*ir.Call); ok && c.Callee.Name == "__realloc" {
			reallocCalls++
		}
	}
	errBlk, okBlk := cond.True, cond.False
	if _, isUnreachable := errBlk.Terminator.(*ir.Unreachable); !isUnreachable {
		errBlk, okBlk = cond.False, cond.True
	}
	_, isUnreachable := errBlk.Terminator.(*ir.Unreachable)
	assert.True(t, isUnreachable)

	for _, i := range okBlk.Instructions {
		if c, ok := i.(*ir.Call); ok && c.Callee.Name == "__realloc" {
			reallocCalls++
		}
	}
	assert.Equal(t, 2, reallocCalls, "one realloc for the push, one for the pop")

	_, okRet := okBlk.Terminator.(*ir.Ret)
	assert.True(t, okRet, "the CFG's trailing Return lowers into PopMemory's success block")
	assert.NoError(t, ir.Verify(fn))
}

// E4: entry branches on c to B1/B2; both set v to a distinct constant and
// branch to B3, which returns v. B3's phi for v has exactly two incoming
// edges, one per predecessor.
func TestE4ConditionalPhiHasTwoIncomings(t *testing.T) {
	f := &cfg.ControlFlowGraph{
		Name:    "f",
		Params:  []cfg.Parameter{{Name: "c", Type: boolT()}},
		Returns: []cfg.Parameter{{Type: u64()}},
		Blocks: []*cfg.Block{
			{Instructions: []cfg.Instr{
				&cfg.BranchCond{Cond: &cfg.Variable{VarNo: 0, Ty: boolT()}, TrueBlk: 1, FalseBlk: 2},
			}},
			{Instructions: []cfg.Instr{
				&cfg.Set{Res: 1, Expr: &cfg.NumberLiteral{Ty: u64(), Value: 10}},
				&cfg.Branch{Target: 3},
			}},
			{Instructions: []cfg.Instr{
				&cfg.Set{Res: 1, Expr: &cfg.NumberLiteral{Ty: u64(), Value: 20}},
				&cfg.Branch{Target: 3},
			}},
			{Instructions: []cfg.Instr{
				&cfg.Return{Values: []cfg.Expression{&cfg.Variable{VarNo: 1, Ty: u64()}}},
			}},
		},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	require.Len(t, fn.Blocks, 4)
	b3 := fn.Blocks[3]

	var vPhi *ir.Phi
	for _, p := range b3.Phis {
		if p.Res.Name == "%v1.b3" {
			vPhi = p
		}
	}
	require.NotNil(t, vPhi, "expected a phi for v1 in block 3")
	require.Len(t, vPhi.Incoming, 2)

	fromB1 := vPhi.Incoming[fn.Blocks[1]]
	fromB2 := vPhi.Incoming[fn.Blocks[2]]
	require.NotNil(t, fromB1)
	require.NotNil(t, fromB2)
	assert.Equal(t, "10", fromB1.Name)
	assert.Equal(t, "20", fromB2.Name)
	assert.NoError(t, ir.Verify(fn))
}

// E5: AbiDecode with selector 0x08c379a0 on Substrate checks data_len > 4,
// compares the leading word in host order (no byte-swap on Substrate), and
// on either failure jumps to the caller-supplied exception block.
func TestE5AbiDecodeChecksLengthAndSelector(t *testing.T) {
	sel := uint32(0x08c379a0)
	dataTy := &cfg.DynamicBytesTy{}
	f := &cfg.ControlFlowGraph{
		Name:   "f",
		Params: []cfg.Parameter{{Name: "data", Type: dataTy}},
		Blocks: []*cfg.Block{
			{Instructions: []cfg.Instr{
				&cfg.AbiDecode{
					Res:            []int{1},
					Selector:       &sel,
					ExceptionBlock: 1,
					Tys:            []cfg.Type{u8()},
					Data:           &cfg.Variable{VarNo: 0, Ty: dataTy},
				},
				&cfg.Return{},
			}},
			{Instructions: []cfg.Instr{
				&cfg.ReturnCodeInstr{Code: cfg.FunctionSelectorInvalid},
			}},
		},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)

	var sawLengthCheck, sawSelectorCompare, sawDecodeCall bool
	var exceptionRets int
	for _, blk := range fn.Blocks {
		for _, i := range blk.Instructions {
			switch v := i.(type) {
			case *ir.ICmp:
				if v.Pred == ir.ICmpUgt {
					sawLengthCheck = true
				}
				if v.Pred == ir.ICmpEq {
					sawSelectorCompare = true
				}
			case *ir.Call:
				if v.Callee.Name == "abi_decode$0$i8" {
					sawDecodeCall = true
				}
			}
		}
		if ret, ok := blk.Terminator.(*ir.Ret); ok && ret.Val != nil && ret.Val.Name == fmt.Sprintf("%d", cfg.FunctionSelectorInvalid) {
			exceptionRets++
		}
	}
	assert.True(t, sawLengthCheck, "expected a data_len > 4 check")
	assert.True(t, sawSelectorCompare, "expected a selector comparison")
	assert.True(t, sawDecodeCall, "expected the decode call for the single uint8 field")
	assert.Equal(t, 1, exceptionRets, "the exception block's own ReturnCodeInstr lowers to a single ret")
	assert.NoError(t, ir.Verify(fn), "both edges into the exception block must wire its phis")
}

// E6: an external call assembles its runtime arguments (address slot,
// payload/len, call-type tag) and derives a boolean success flag from the
// raw ReturnCode via equality against Success.
func TestE6ExternalCallBindsSuccessFlag(t *testing.T) {
	payloadTy := &cfg.DynamicBytesTy{}
	f := &cfg.ControlFlowGraph{
		Name:   "f",
		Params: []cfg.Parameter{{Name: "payload", Type: payloadTy}},
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.ExternalCall{
					Success:  1,
					Address:  &cfg.BytesLiteral{Ty: &cfg.AddressTy{}, Value: make([]byte, 20)},
					Payload:  &cfg.Variable{VarNo: 0, Ty: payloadTy},
					CallType: cfg.CallRegular,
				},
				&cfg.Return{},
			},
		}},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	block := fn.Blocks[0]

	var call *ir.Call
	var cmp *ir.ICmp
	for _, i := range block.Instructions {
		switch v := i.(type) {
		case *ir.Call:
			if v.Callee.Name == "external_call" {
				call = v
			}
		case *ir.ICmp:
			cmp = v
		}
	}
	require.NotNil(t, call)
	assert.Len(t, call.Args, 4, "address, payload ptr, payload len, call-type tag")
	require.NotNil(t, cmp)
	assert.Equal(t, ir.ICmpEq, cmp.Pred)
	assert.Equal(t, call.Res, cmp.LHS)
}

// E7: Call{Builtin} to signature_verify with a non-Success code propagates
// that exact code to the caller, through the same branchOnSuccess path
// Call{Static}/Call{Dynamic} use.
func TestE7FallibleBuiltinPropagatesNonSuccessCode(t *testing.T) {
	addrTy := &cfg.AddressTy{}
	f := &cfg.ControlFlowGraph{
		Name:   "f",
		Params: []cfg.Parameter{{Name: "pk", Type: addrTy}, {Name: "msg", Type: addrTy}, {Name: "sig", Type: addrTy}},
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Call{
					Kind:   cfg.CallBuiltin,
					Callee: &cfg.FunctionDecl{Name: "signature_verify", Params: []cfg.Type{addrTy, addrTy, addrTy}},
					Args: []cfg.Expression{
						&cfg.Variable{VarNo: 0, Ty: addrTy},
						&cfg.Variable{VarNo: 1, Ty: addrTy},
						&cfg.Variable{VarNo: 2, Ty: addrTy},
					},
				},
				&cfg.Return{},
			},
		}},
	}
	bin := substrateBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	entry := fn.Blocks[0]

	var call *ir.Call
	for _, i := range entry.Instructions {
		if c, ok := i.(*ir.Call); ok && c.Callee.Name == "signature_verify" {
			call = c
		}
	}
	require.NotNil(t, call)

	cond, ok := entry.Terminator.(*ir.CondBr)
	require.True(t, ok, "a fallible builtin must branch on its ReturnCode")

	bailBlk := cond.False
	ret, ok := bailBlk.Terminator.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, call.Res, ret.Val, "the bail path returns the builtin's own code verbatim")

	okRet, ok := cond.True.Terminator.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, "0", okRet.Val.Name, "the success path falls through to the CFG's own Return")
}

// §8.7: a Static call whose callee reports a non-Success code makes the
// caller return that exact code; the calling block's remaining
// instructions lower into the success block instead.
func TestStaticCallPropagatesExactCodeAndBindsResult(t *testing.T) {
	callee := &cfg.ControlFlowGraph{
		Name:    "helper",
		Returns: []cfg.Parameter{{Type: u64()}},
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Return{Values: []cfg.Expression{&cfg.NumberLiteral{Ty: u64(), Value: 3}}},
			},
		}},
	}
	caller := &cfg.ControlFlowGraph{
		Name: "main",
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Call{Res: []int{0}, Kind: cfg.CallStatic, CFGNo: 0},
				&cfg.Return{},
			},
		}},
	}
	contract := &cfg.Contract{Name: "c", CFGs: []*cfg.ControlFlowGraph{callee, caller}}
	bin := substrateBinary(contract)
	LowerFunction(bin, 0)
	LowerFunction(bin, 1)

	fn := bin.FunctionFor(1)
	entry := fn.Blocks[0]

	var call *ir.Call
	for _, i := range entry.Instructions {
		if c, ok := i.(*ir.Call); ok && c.Callee == bin.FunctionFor(0) {
			call = c
		}
	}
	require.NotNil(t, call, "the caller invokes the pre-declared function handle")
	require.Len(t, call.Args, 1, "one out-pointer for the callee's single return")

	cond, ok := entry.Terminator.(*ir.CondBr)
	require.True(t, ok)
	bailRet, ok := cond.False.Terminator.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, call.Res, bailRet.Val, "non-Success codes are returned verbatim")

	var loaded bool
	for _, i := range cond.True.Instructions {
		if ld, ok := i.(*ir.Load); ok && ld.Ptr == call.Args[0] {
			loaded = true
		}
	}
	assert.True(t, loaded, "the success block loads the out-pointer to bind the result")
	_, ok = cond.True.Terminator.(*ir.Ret)
	assert.True(t, ok, "the calling block's trailing Return lowers into the success block")
	assert.NoError(t, ir.Verify(fn))
}

// On Solana every internal call carries the ambient accounts parameter
// appended after the declared arguments, and out-pointer allocas obey the
// entry-block placement policy (§6).
func TestSolanaStaticCallAppendsAmbientAccounts(t *testing.T) {
	callee := &cfg.ControlFlowGraph{
		Name:    "helper",
		Returns: []cfg.Parameter{{Type: u64()}},
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Return{Values: []cfg.Expression{&cfg.NumberLiteral{Ty: u64(), Value: 1}}},
			},
		}},
	}
	caller := &cfg.ControlFlowGraph{
		Name: "main",
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.Call{Res: []int{0}, Kind: cfg.CallStatic, CFGNo: 0},
				&cfg.Return{},
			},
		}},
	}
	contract := &cfg.Contract{Name: "c", CFGs: []*cfg.ControlFlowGraph{callee, caller}}
	bin := solanaBinary(contract)
	LowerFunction(bin, 1)

	fn := bin.FunctionFor(1)
	require.Equal(t, "%accounts", fn.Params[0].Name, "a function with no declared params still gets the ambient accounts param")

	entry := fn.Blocks[0]
	assert.IsType(t, &ir.Alloca{}, entry.Instructions[0], "out-pointer allocas are placed at the head of the entry block")

	var call *ir.Call
	for _, i := range entry.Instructions {
		if c, ok := i.(*ir.Call); ok && c.Callee == bin.FunctionFor(0) {
			call = c
		}
	}
	require.NotNil(t, call)
	require.Len(t, call.Args, 2, "ambient accounts plus one out-pointer")
	assert.Equal(t, fn.Params[0], call.Args[0], "the caller forwards its own accounts param")
}

// On Solana the realloc byte size is widened to 64 bits before the
// __realloc call (§6's realloc size width axis).
func TestSolanaPushWidensReallocSizeTo64(t *testing.T) {
	arrTy := &cfg.ArrayTy{Elem: u8()}
	f := &cfg.ControlFlowGraph{
		Name:   "f",
		Params: []cfg.Parameter{{Name: "xs", Type: arrTy}},
		Blocks: []*cfg.Block{{
			Instructions: []cfg.Instr{
				&cfg.PushMemory{Res: 1, Ty: arrTy, Array: 0, Value: &cfg.NumberLiteral{Ty: u8(), Value: 7}},
				&cfg.Return{},
			},
		}},
	}
	bin := solanaBinary(singleCFGContract(f))
	LowerFunction(bin, 0)

	fn := bin.FunctionFor(0)
	var widened bool
	for _, i := range fn.Blocks[0].Instructions {
		if c, ok := i.(*ir.Cast); ok && c.Op == ir.CastZExt && c.To == ir.I64 {
			widened = true
		}
	}
	assert.True(t, widened, "the push size must be zero-extended to i64 on Solana")
}

// The work-list driver handles CFGs assembled from the textual fixture
// notation end to end, and the lowered module passes the IR verifier.
func TestLowerContractFromAssembledFixture(t *testing.T) {
	contract, err := asm.AssembleContract("demo",
		`
function one(u64 v0) -> (u64) {
block 0:
  return v0;
}
`,
		`
function two(bool v0) -> (u64) {
block 0:
  branchcond v0, block 1, block 2;
block 1:
  set v1 = 10;
  branch block 3;
block 2:
  set v1 = 20;
  branch block 3;
block 3:
  return v1;
}
`)
	require.NoError(t, err)

	bin := substrateBinary(contract)
	mod := LowerContract(bin)
	require.NoError(t, ir.VerifyModule(mod))

	for _, name := range []string{"one", "two"} {
		fn := mod.FunctionByName(name)
		require.NotNil(t, fn)
		assert.False(t, fn.Declared(), "%s must be lowered, not just declared", name)
	}
}
