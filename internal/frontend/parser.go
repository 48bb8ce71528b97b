package frontend

import (
	"fmt"

	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
)

// exprVal is one parsed expression's result: the register it was emitted
// into, plus (when every operand feeding it was a literal) its folded
// compile-time value, so a later binary op can still constant-fold.
type exprVal struct {
	reg      ir.Reg
	isConst  bool
	constVal int32
}

type parser struct {
	lex   *lexer
	cur   token
	p     *ir.Program
	warn  *lerr.Sink
	addrs map[string]struct{} // names declared as arrays
}

// Parse compiles src into p's IR (SPEC_FULL.md §D). warn collects
// non-fatal diagnostics (constant-fold division-by-zero / invalid shift
// amount substitutions, spec.md §7); err is non-nil only on a fatal
// syntax or semantic error.
func Parse(src string) (*ir.Program, *lerr.Sink, error) {
	ps := &parser{lex: newLexer(src), p: ir.NewProgram(), warn: &lerr.Sink{}, addrs: map[string]struct{}{}}
	if err := ps.advance(); err != nil {
		return nil, nil, err
	}
	for ps.cur.kind != tokEOF {
		if err := ps.topLevel(); err != nil {
			return nil, nil, err
		}
	}
	ps.p.EmitHalt()
	return ps.p, ps.warn, nil
}

func (ps *parser) advance() error {
	t, err := ps.lex.Next()
	if err != nil {
		return err
	}
	ps.cur = t
	return nil
}

func (ps *parser) errf(format string, args ...interface{}) error {
	return lerr.New(lerr.InvalidExpression, fmt.Sprintf("line %d: %s", ps.cur.line, fmt.Sprintf(format, args...)))
}

func (ps *parser) expectPunct(p string) error {
	if ps.cur.kind != tokPunct || ps.cur.text != p {
		return ps.errf("expected %q, got %q", p, ps.cur.text)
	}
	return ps.advance()
}

func (ps *parser) isPunct(p string) bool { return ps.cur.kind == tokPunct && ps.cur.text == p }
func (ps *parser) isKeyword(k string) bool { return ps.cur.kind == tokKeyword && ps.cur.text == k }

// --- top level: declarations and statements share one scope (spec.md §D
// "smallest parser able to drive the scenarios": Lance has no functions). ---

func (ps *parser) topLevel() error {
	if ps.isKeyword("int") {
		return ps.declareVar()
	}
	return ps.statement()
}

func (ps *parser) declareVar() error {
	if err := ps.advance(); err != nil { // consume "int"
		return err
	}
	if ps.cur.kind != tokIdent {
		return ps.errf("expected identifier after 'int'")
	}
	name := ps.cur.text
	if err := ps.advance(); err != nil {
		return err
	}

	v := ir.Variable{Name: name, ElemType: ir.TypeInteger}
	if ps.isPunct("[") {
		if err := ps.advance(); err != nil {
			return err
		}
		if ps.cur.kind != tokNumber {
			return ps.errf("expected array size literal")
		}
		v.IsArray = true
		v.ArraySize = ps.cur.num
		if err := ps.advance(); err != nil {
			return err
		}
		if err := ps.expectPunct("]"); err != nil {
			return err
		}
		ps.addrs[name] = struct{}{}
	} else if ps.isPunct("=") {
		if err := ps.advance(); err != nil {
			return err
		}
		iv, err := ps.expr()
		if err != nil {
			return err
		}
		if !iv.isConst {
			return ps.errf("initializer must be a constant expression")
		}
		v.Initializer = iv.constVal
	}
	if err := ps.expectPunct(";"); err != nil {
		return err
	}

	label := ps.p.ReserveLabel()
	ps.p.SetLabelName(label, name)
	v.Label = label
	if err := ps.p.DeclareVariable(v); err != nil {
		return err
	}
	return ps.p.Bind(name, &ir.SymtabEntry{Type: ir.TypeInteger})
}

// --- statements ---

func (ps *parser) statement() error {
	switch {
	case ps.isPunct("{"):
		return ps.block()
	case ps.isKeyword("while"):
		return ps.whileStmt()
	case ps.isKeyword("if"):
		return ps.ifStmt()
	case ps.isKeyword("read"):
		return ps.readStmt()
	case ps.isKeyword("write"):
		return ps.writeStmt()
	case ps.cur.kind == tokIdent:
		return ps.assignStmt()
	default:
		return ps.errf("unexpected token %q", ps.cur.text)
	}
}

func (ps *parser) block() error {
	if err := ps.expectPunct("{"); err != nil {
		return err
	}
	for !ps.isPunct("}") {
		if ps.cur.kind == tokEOF {
			return ps.errf("unterminated block")
		}
		if ps.isKeyword("int") {
			if err := ps.declareVar(); err != nil {
				return err
			}
			continue
		}
		if err := ps.statement(); err != nil {
			return err
		}
	}
	return ps.expectPunct("}")
}

func (ps *parser) readStmt() error {
	if err := ps.advance(); err != nil {
		return err
	}
	if err := ps.expectPunct("("); err != nil {
		return err
	}
	if ps.cur.kind != tokIdent {
		return ps.errf("expected variable name in read()")
	}
	name := ps.cur.text
	if err := ps.advance(); err != nil {
		return err
	}
	if err := ps.expectPunct(")"); err != nil {
		return err
	}
	if err := ps.expectPunct(";"); err != nil {
		return err
	}
	dst := ir.R(ps.p.NewVirtualRegister())
	ps.p.EmitAxeRead(dst)
	return ps.storeVar(name, exprVal{reg: dst})
}

func (ps *parser) writeStmt() error {
	if err := ps.advance(); err != nil {
		return err
	}
	if err := ps.expectPunct("("); err != nil {
		return err
	}
	v, err := ps.expr()
	if err != nil {
		return err
	}
	if err := ps.expectPunct(")"); err != nil {
		return err
	}
	if err := ps.expectPunct(";"); err != nil {
		return err
	}
	ps.p.EmitAxeWrite(ps.materialize(v))
	return nil
}

func (ps *parser) assignStmt() error {
	name := ps.cur.text
	if err := ps.advance(); err != nil {
		return err
	}
	var index *exprVal
	if ps.isPunct("[") {
		if err := ps.advance(); err != nil {
			return err
		}
		iv, err := ps.expr()
		if err != nil {
			return err
		}
		index = &iv
		if err := ps.expectPunct("]"); err != nil {
			return err
		}
	}
	if err := ps.expectPunct("="); err != nil {
		return err
	}
	v, err := ps.expr()
	if err != nil {
		return err
	}
	if err := ps.expectPunct(";"); err != nil {
		return err
	}
	if index != nil {
		return ps.storeArray(name, *index, v)
	}
	return ps.storeVar(name, v)
}

func (ps *parser) whileStmt() error {
	if err := ps.advance(); err != nil {
		return err
	}
	top := ps.p.ReserveLabel()
	ps.p.AttachLabel(top)
	ps.p.EmitNop()
	if err := ps.expectPunct("("); err != nil {
		return err
	}
	cond, err := ps.expr()
	if err != nil {
		return err
	}
	if err := ps.expectPunct(")"); err != nil {
		return err
	}
	end := ps.p.ReserveLabel()
	ps.emitBranchIfZero(cond, end)
	if err := ps.statement(); err != nil {
		return err
	}
	ps.p.EmitBranch(ir.OpBt, top)
	ps.p.AttachLabel(end)
	ps.p.EmitNop()
	return nil
}

func (ps *parser) ifStmt() error {
	if err := ps.advance(); err != nil {
		return err
	}
	if err := ps.expectPunct("("); err != nil {
		return err
	}
	cond, err := ps.expr()
	if err != nil {
		return err
	}
	if err := ps.expectPunct(")"); err != nil {
		return err
	}
	elseLbl := ps.p.ReserveLabel()
	ps.emitBranchIfZero(cond, elseLbl)
	if err := ps.statement(); err != nil {
		return err
	}
	if ps.isKeyword("else") {
		endLbl := ps.p.ReserveLabel()
		ps.p.EmitBranch(ir.OpBt, endLbl)
		ps.p.AttachLabel(elseLbl)
		ps.p.EmitNop()
		if err := ps.advance(); err != nil {
			return err
		}
		if err := ps.statement(); err != nil {
			return err
		}
		ps.p.AttachLabel(endLbl)
		ps.p.EmitNop()
		return nil
	}
	ps.p.AttachLabel(elseLbl)
	ps.p.EmitNop()
	return nil
}

// emitBranchIfZero branches to target when cond is zero: compare against
// zero to set psw, then emit the false-branch opcode (spec.md §3 flags
// handling; the amd64/mace lowering passes fix up flag materialization).
func (ps *parser) emitBranchIfZero(cond exprVal, target ir.LabelID) {
	r := ps.materialize(cond)
	ps.p.EmitImmediate(ir.OpSubI, ir.R(0), r, 0)
	ps.p.EmitBranch(ir.OpBeq, target)
}

func (ps *parser) materialize(v exprVal) ir.Reg {
	if !v.isConst {
		return v.reg
	}
	r := ir.R(ps.p.NewVirtualRegister())
	ps.p.EmitImmediate(ir.OpAddI, r, ir.R(0), v.constVal)
	return r
}

// --- variable access ---

func (ps *parser) symtabType(name string) (*ir.SymtabEntry, error) {
	e, ok := ps.p.Lookup(name)
	if !ok {
		return nil, ps.errf("undeclared variable %q", name)
	}
	return e, nil
}

func (ps *parser) varLabel(name string) (ir.LabelID, error) {
	for _, v := range ps.p.Variables {
		if v.Name == name {
			return v.Label, nil
		}
	}
	return 0, ps.errf("undeclared variable %q", name)
}

func (ps *parser) loadVar(name string) (exprVal, error) {
	if _, err := ps.symtabType(name); err != nil {
		return exprVal{}, err
	}
	lbl, err := ps.varLabel(name)
	if err != nil {
		return exprVal{}, err
	}
	addr := ir.R(ps.p.NewVirtualRegister()).WithType(ir.TypeIntegerPtr)
	ps.p.EmitMova(addr, ir.LabelAddr(lbl))
	dst := ir.R(ps.p.NewVirtualRegister())
	ps.p.EmitLoad(dst, addr.Indirected())
	return exprVal{reg: dst}, nil
}

func (ps *parser) storeVar(name string, v exprVal) error {
	if _, err := ps.symtabType(name); err != nil {
		return err
	}
	lbl, err := ps.varLabel(name)
	if err != nil {
		return err
	}
	addr := ir.R(ps.p.NewVirtualRegister()).WithType(ir.TypeIntegerPtr)
	ps.p.EmitMova(addr, ir.LabelAddr(lbl))
	ps.p.EmitStore(addr.Indirected(), ps.materialize(v))
	return nil
}

func (ps *parser) arrayAddr(name string, index exprVal) (ir.Reg, error) {
	lbl, err := ps.varLabel(name)
	if err != nil {
		return ir.Reg{}, err
	}
	base := ir.R(ps.p.NewVirtualRegister()).WithType(ir.TypeIntegerPtr)
	ps.p.EmitMova(base, ir.LabelAddr(lbl))
	idx := ps.materialize(index)
	scaled := ir.R(ps.p.NewVirtualRegister())
	ps.p.EmitImmediate(ir.OpMulI, scaled, idx, 4)
	addr := ir.R(ps.p.NewVirtualRegister()).WithType(ir.TypeIntegerPtr)
	ps.p.EmitTernary(ir.OpAdd, addr, base, scaled)
	return addr, nil
}

func (ps *parser) loadArray(name string, index exprVal) (exprVal, error) {
	addr, err := ps.arrayAddr(name, index)
	if err != nil {
		return exprVal{}, err
	}
	dst := ir.R(ps.p.NewVirtualRegister())
	ps.p.EmitLoad(dst, addr.Indirected())
	return exprVal{reg: dst}, nil
}

func (ps *parser) storeArray(name string, index, v exprVal) error {
	addr, err := ps.arrayAddr(name, index)
	if err != nil {
		return err
	}
	ps.p.EmitStore(addr.Indirected(), ps.materialize(v))
	return nil
}
