package codegen

import (
	"fmt"

	"cmips/pkg/ast"
	"cmips/pkg/config"
	"cmips/pkg/diag"
	"cmips/pkg/token"
)

// Frame layout, relative to $fp (= $sp at function entry):
//
//	4i($fp)    argument i, stored by the caller
//	-4($fp)    saved $ra
//	-8($fp)    saved $fp
//	-12..-48   saved $t0..$t9 (temporaries survive nested calls)
//	-52($fp).. locals and array slices, allocated downward
const firstLocalSlot = 13 // slot s lives at -4s($fp)

// mangle maps a source-declared name into the label namespace reserved for
// user symbols, keeping it disjoint from minted L%d labels and the plain
// built-in names.
func mangle(name string) string { return "_" + name }

// Signature describes a callable registered in the global namespace.
type Signature struct {
	Name   string
	Label  string
	Return *ast.Type
	Params []*ast.Type
	Loc    token.Location
}

type globalEntry struct {
	sym Symbol     // nil for functions
	sig *Signature // nil for fields
	loc token.Location
}

// GlobalContext is the process-wide compilation state: the global symbol
// table, the label counter, and the diagnostics sink.
type GlobalContext struct {
	Cfg        *config.Config
	Diag       diag.Handler
	labelCount int
	symbols    map[string]*globalEntry
}

func NewGlobalContext(cfg *config.Config, handler diag.Handler) *GlobalContext {
	if handler == nil {
		handler = func(token.Location, string, string) {}
	}
	return &GlobalContext{
		Cfg:     cfg,
		Diag:    handler,
		symbols: make(map[string]*globalEntry),
	}
}

// NewLabel mints a globally unique label.
func (g *GlobalContext) NewLabel() string {
	l := fmt.Sprintf("L%d", g.labelCount)
	g.labelCount++
	return l
}

// DeclareField binds a global variable or array in the global namespace.
func (g *GlobalContext) DeclareField(name string, typ *ast.Type, loc token.Location) (Symbol, error) {
	if _, ok := g.symbols[name]; ok {
		return nil, diag.Errorf(loc, "symbol \"%s\" already declared", name)
	}
	var sym Symbol
	if typ.IsArray() {
		sym = &ArrayBase{Label: mangle(name), Typ: typ, Loc: loc}
	} else {
		sym = &GlobalVariable{Label: mangle(name), Typ: typ, Loc: loc}
	}
	g.symbols[name] = &globalEntry{sym: sym, loc: loc}
	return sym, nil
}

// DeclareFunction registers a callable signature.
func (g *GlobalContext) DeclareFunction(sig *Signature) error {
	if _, ok := g.symbols[sig.Name]; ok {
		return diag.Errorf(sig.Loc, "symbol \"%s\" already declared", sig.Name)
	}
	g.symbols[sig.Name] = &globalEntry{sig: sig, loc: sig.Loc}
	return nil
}

func (g *GlobalContext) lookup(name string) *globalEntry { return g.symbols[name] }

// FunctionContext carries the per-function state: the signature, the return
// label the epilogue sits at, the monotone frame allocator, and the
// break/continue target stacks shared by the nested local scopes.
type FunctionContext struct {
	Global      *GlobalContext
	Sig         *Signature
	ReturnLabel string

	nextSlot int
	maxSlot  int

	breakStack    []string
	continueStack []string
}

func NewFunctionContext(global *GlobalContext, sig *Signature) *FunctionContext {
	return &FunctionContext{
		Global:      global,
		Sig:         sig,
		ReturnLabel: global.NewLabel(),
		nextSlot:    firstLocalSlot,
		maxSlot:     firstLocalSlot,
	}
}

// allocWords reserves n contiguous words on the frame and returns the $fp
// offset of the lowest-addressed word, so array elements grow upward from
// the returned base.
func (f *FunctionContext) allocWords(n int) int {
	first := f.nextSlot
	f.nextSlot += n
	if f.nextSlot > f.maxSlot {
		f.maxSlot = f.nextSlot
	}
	return -4 * (first + n - 1)
}

// FrameSize is the high-water frame size in bytes, fixed header included.
func (f *FunctionContext) FrameSize() int { return 4 * (f.maxSlot - 1) }

// LocalContext is a lexical scope. Lookup walks the scope chain and falls
// back to the global namespace. Closing a scope returns its frame slice to
// the allocator so sibling scopes may reuse it.
type LocalContext struct {
	Fn      *FunctionContext
	parent  *LocalContext
	symbols map[string]Symbol
	mark    int
}

func NewLocalContext(fn *FunctionContext) *LocalContext {
	return &LocalContext{Fn: fn, symbols: make(map[string]Symbol), mark: fn.nextSlot}
}

// Child opens a nested scope.
func (l *LocalContext) Child() *LocalContext {
	return &LocalContext{Fn: l.Fn, parent: l, symbols: make(map[string]Symbol), mark: l.Fn.nextSlot}
}

// Close releases the frame slice this scope reserved.
func (l *LocalContext) Close() { l.Fn.nextSlot = l.mark }

// Declare binds a new local name. Re-declaration in the same scope is an
// error; shadowing an outer binding is allowed.
func (l *LocalContext) Declare(name string, typ *ast.Type, loc token.Location) (Symbol, error) {
	if _, ok := l.symbols[name]; ok {
		return nil, diag.Errorf(loc, "symbol \"%s\" already declared", name)
	}
	if l.Fn.Global.Cfg != nil && l.Fn.Global.Cfg.IsWarningEnabled(config.WarnShadow) {
		if outer, _ := l.Lookup(name); outer != nil {
			l.Fn.Global.Diag(loc, diag.SeverityWarning, fmt.Sprintf("declaration of \"%s\" shadows an outer binding", name))
		}
	}

	var sym Symbol
	if typ.IsArray() {
		sym = &ArrayBase{Offset: l.Fn.allocWords(typ.Len), OnFrame: true, Typ: typ, Loc: loc}
	} else {
		sym = &LocalVariable{Offset: l.Fn.allocWords(1), Typ: typ, Loc: loc}
	}
	l.symbols[name] = sym
	return sym, nil
}

// DeclareParameter binds argument index to its caller-stored slot.
func (l *LocalContext) DeclareParameter(name string, typ *ast.Type, index int, loc token.Location) (Symbol, error) {
	if _, ok := l.symbols[name]; ok {
		return nil, diag.Errorf(loc, "symbol \"%s\" already declared", name)
	}
	sym := &Parameter{Index: index, Typ: typ, Loc: loc}
	l.symbols[name] = sym
	return sym, nil
}

// Lookup resolves a name to the nearest binding; the second result is
// non-nil when the name resolves to a function signature instead.
func (l *LocalContext) Lookup(name string) (Symbol, *Signature) {
	for scope := l; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, nil
		}
	}
	if entry := l.Fn.Global.lookup(name); entry != nil {
		return entry.sym, entry.sig
	}
	return nil, nil
}

// Loop and switch target stacks. A switch contributes only a break target.

func (l *LocalContext) PushLoop(breakLabel, continueLabel string) {
	l.Fn.breakStack = append(l.Fn.breakStack, breakLabel)
	l.Fn.continueStack = append(l.Fn.continueStack, continueLabel)
}

func (l *LocalContext) PopLoop() {
	l.Fn.breakStack = l.Fn.breakStack[:len(l.Fn.breakStack)-1]
	l.Fn.continueStack = l.Fn.continueStack[:len(l.Fn.continueStack)-1]
}

func (l *LocalContext) PushSwitch(breakLabel string) {
	l.Fn.breakStack = append(l.Fn.breakStack, breakLabel)
}

func (l *LocalContext) PopSwitch() {
	l.Fn.breakStack = l.Fn.breakStack[:len(l.Fn.breakStack)-1]
}

func (l *LocalContext) BreakTarget() (string, bool) {
	if n := len(l.Fn.breakStack); n > 0 {
		return l.Fn.breakStack[n-1], true
	}
	return "", false
}

func (l *LocalContext) ContinueTarget() (string, bool) {
	if n := len(l.Fn.continueStack); n > 0 {
		return l.Fn.continueStack[n-1], true
	}
	return "", false
}

// ExpressionContext holds the free temporary registers for one expression
// evaluation. Temporaries are reserved on descent and released on ascent;
// nested subexpressions therefore hold disjoint registers.
type ExpressionContext struct {
	Local *LocalContext
	free  []int
}

func NewExpressionContext(local *LocalContext) *ExpressionContext {
	// $t9 at the bottom so $t0 is handed out first
	free := make([]int, 0, 10)
	for i := 9; i >= 0; i-- {
		free = append(free, i)
	}
	return &ExpressionContext{Local: local, free: free}
}

// NewTemp reserves a temporary register.
func (e *ExpressionContext) NewTemp(typ *ast.Type, loc token.Location) (*Temporary, error) {
	if len(e.free) == 0 {
		return nil, diag.Errorf(loc, "expression too complex: out of temporary registers")
	}
	idx := e.free[len(e.free)-1]
	e.free = e.free[:len(e.free)-1]
	return &Temporary{Index: idx, Typ: typ, Loc: loc}, nil
}

// Release returns a temporary to the pool; other symbol kinds pass through.
func (e *ExpressionContext) Release(sym Symbol) {
	if t, ok := sym.(*Temporary); ok {
		e.free = append(e.free, t.Index)
	}
}

// FreeCount reports how many temporaries are available.
func (e *ExpressionContext) FreeCount() int { return len(e.free) }
