// Package compiler implements the single-pass Pratt-style compiler: it
// drives the lexer, parses by operator precedence, resolves lexical scope,
// and emits bytecode directly — no intermediate syntax tree is ever
// materialized. Parsing, scope tracking, jump-patching, and function
// compilation all happen inline, in one pass over the token stream.
package compiler

import (
	"fmt"
	"os"
	"strconv"

	"wisp/bytecode"
	"wisp/disasm"
	"wisp/lexer"
	"wisp/object"
	"wisp/token"
)

// FuncKind distinguishes the implicit top-level script from a named
// function body.
type FuncKind int

const (
	TypeScript FuncKind = iota
	TypeFunction
)

// local is a single lexically-scoped local variable slot being tracked
// during compilation. depth == -1 marks "declared but not yet initialized",
// the sentinel that makes `var x = x;` a compile error.
type local struct {
	name  token.Token
	depth int
}

// funcState is the transient, chainable compiler state for one function
// body (or the top-level script). Nested function compilation pushes a new
// funcState whose enclosing field points back at the one compiling it.
type funcState struct {
	enclosing  *funcState
	function   *object.Function
	kind       FuncKind
	locals     []local
	scopeDepth int
}

const maxLocals = 256

// Compiler is the process-scoped parser plus the active chain of funcState
// frames. One Compiler compiles exactly one top-level Compile call.
type Compiler struct {
	lex       *lexer.Lexer
	current   token.Token
	previous  token.Token
	hadError  bool
	panicMode bool
	errors    []string

	registry *object.Registry
	fn       *funcState
	debug    bool
}

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   Precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, prec: PrecCall},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: PrecTerm},
		token.Plus:         {infix: (*Compiler).binary, prec: PrecTerm},
		token.Slash:        {infix: (*Compiler).binary, prec: PrecFactor},
		token.Star:         {infix: (*Compiler).binary, prec: PrecFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, prec: PrecEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, prec: PrecEquality},
		token.Greater:      {infix: (*Compiler).binary, prec: PrecComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, prec: PrecComparison},
		token.Less:         {infix: (*Compiler).binary, prec: PrecComparison},
		token.LessEqual:    {infix: (*Compiler).binary, prec: PrecComparison},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.String:       {prefix: (*Compiler).stringLiteral},
		token.Number:       {prefix: (*Compiler).number},
		token.And:          {infix: (*Compiler).and_, prec: PrecAnd},
		token.Or:           {infix: (*Compiler).or_, prec: PrecOr},
		token.False:        {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
		token.True:         {prefix: (*Compiler).literal},
	}
}

func (c *Compiler) getRule(t token.Type) parseRule {
	return rules[t] // zero value {nil, nil, PrecNone} for tokens with no rule
}

// Compile compiles source into a top-level Function, or returns a
// CompileError aggregating every reported error if compilation failed.
// Compilation always proceeds to EOF regardless of errors encountered along
// the way; only the final result reflects whether any were reported.
func Compile(source string, registry *object.Registry, debug bool) (*object.Function, error) {
	c := &Compiler{
		lex:      lexer.New(source),
		registry: registry,
		debug:    debug,
	}
	c.fn = &funcState{
		function: registry.NewFunction("", 0, bytecode.NewChunk()),
		kind:     TypeScript,
	}
	// Slot 0 is reserved for the callee itself; it has no accessible name.
	c.fn.locals = append(c.fn.locals, local{depth: 0})

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.finishFunction()
	if c.hadError {
		return nil, CompileError{Messages: c.errors}
	}
	return fn, nil
}

// finishFunction emits the implicit trailing return, optionally
// disassembles the completed chunk, and returns the Function.
func (c *Compiler) finishFunction() *object.Function {
	c.emitReturn()
	fn := c.fn.function
	if c.debug {
		fmt.Fprint(os.Stdout, disasm.Disassemble(fn.Chunk, fn.String()))
	}
	return fn
}

// ---- token stream plumbing -------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.ScanToken()
		if c.current.Type != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	var where string
	switch tok.Type {
	case token.EOF:
		where = " at end"
	case token.Error:
		where = ""
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	c.errors = append(c.errors, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, message))
	c.hadError = true
}

func (c *Compiler) errorAtCurrent(message string)  { c.errorAt(c.current, message) }
func (c *Compiler) errorAtPrevious(message string) { c.errorAt(c.previous, message) }

// synchronize advances past the current panic, up to the next token that
// plausibly begins a new declaration, resetting panicMode so later errors
// are reported again.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != token.EOF {
		if c.previous.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// ---- bytecode emission -----------------------------------------------------

func (c *Compiler) currentChunk() *bytecode.Chunk {
	return c.fn.function.Chunk
}

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.Opcode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op bytecode.Opcode, operand byte) {
	c.emitByte(byte(op))
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)
}

// emitJump writes op followed by a 2-byte placeholder offset, returning the
// offset of the placeholder's first byte for later patchJump backpatching.
func (c *Compiler) emitJump(op bytecode.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.errorAtPrevious("Too much code to jump over.")
		return
	}
	c.currentChunk().PatchUint16(offset, uint16(jump))
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.errorAtPrevious("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) makeConstant(value object.Value) byte {
	idx, err := c.currentChunk().AddConstant(value)
	if err != nil {
		c.errorAtPrevious(err.Error())
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(value object.Value) {
	c.emitOpByte(bytecode.OpConstant, c.makeConstant(value))
}

// ---- expressions ------------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefixRule := c.getRule(c.previous.Type).prefix
	if prefixRule == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefixRule(c, canAssign)

	for prec <= c.getRule(c.current.Type).prec {
		c.advance()
		infixRule := c.getRule(c.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func (c *Compiler) number(_ bool) {
	value, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(object.Number(value))
}

func (c *Compiler) stringLiteral(_ bool) {
	raw := c.previous.Lexeme
	contents := raw[1 : len(raw)-1] // strip surrounding quotes
	c.emitConstant(object.FromObj(c.registry.Intern(contents)))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Type {
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	case token.True:
		c.emitOp(bytecode.OpTrue)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	operatorType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch operatorType {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	}
}

// binary parses the right-hand operand at one precedence level above the
// operator's own, giving left-associativity, then emits the opcode(s) for
// the operator. != and <= and >= are two-instruction macros over the
// primitive comparisons: there's no dedicated opcode for any of the three.
func (c *Compiler) binary(_ bool) {
	operatorType := c.previous.Type
	rule := c.getRule(operatorType)
	c.parsePrecedence(rule.prec + 1)

	switch operatorType {
	case token.BangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.EqualEqual:
		c.emitOp(bytecode.OpEqual)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSubtract)
	case token.Star:
		c.emitOp(bytecode.OpMultiply)
	case token.Slash:
		c.emitOp(bytecode.OpDivide)
	}
}

func (c *Compiler) and_(_ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(_ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)

	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	arg := c.resolveLocal(name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) call(_ bool) {
	argc := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	argc := 0
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if argc == 255 {
				c.errorAtPrevious("Can't have more than 255 arguments.")
			} else {
				argc++
			}
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after arguments.")
	return byte(argc)
}

// ---- variable resolution ----------------------------------------------------

func (c *Compiler) identifierConstant(name token.Token) byte {
	return c.makeConstant(object.FromObj(c.registry.Intern(name.Lexeme)))
}

// declareVariable records a new local in the current scope at depth 0 this
// is a no-op: globals are late-bound and live in the VM's globals table
// instead of a predicted stack slot.
func (c *Compiler) declareVariable() {
	if c.fn.scopeDepth == 0 {
		return
	}

	name := c.previous
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.depth != -1 && l.depth < c.fn.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.fn.locals) >= maxLocals {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.fn.locals = append(c.fn.locals, local{name: name, depth: -1})
}

// parseVariable consumes an identifier, declares it, and — for globals —
// returns its name's constant-pool index. Locals return 0 and are resolved
// by stack slot instead.
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.Identifier, errMsg)
	c.declareVariable()
	if c.fn.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	if c.fn.scopeDepth == 0 {
		return
	}
	c.fn.locals[len(c.fn.locals)-1].depth = c.fn.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, global)
}

func (c *Compiler) resolveLocal(name token.Token) int {
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.name.Lexeme == name.Lexeme {
			if l.depth == -1 {
				c.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) beginScope() {
	c.fn.scopeDepth++
}

func (c *Compiler) endScope() {
	c.fn.scopeDepth--
	for len(c.fn.locals) > 0 && c.fn.locals[len(c.fn.locals)-1].depth > c.fn.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.fn.locals = c.fn.locals[:len(c.fn.locals)-1]
	}
}

// ---- declarations and statements --------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Fun):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized() // lets the body reference its own (local) name for recursion
	c.function(TypeFunction)
	c.defineVariable(global)
}

// function pushes a nested funcState, compiles the parameter list and body,
// then pops back to the enclosing compiler and leaves the finished Function
// on its constant pool — where define_variable's caller will bind it to a
// name, just as any other initializer expression would.
func (c *Compiler) function(kind FuncKind) {
	name := c.previous.Lexeme
	enclosing := c.fn
	c.fn = &funcState{
		enclosing: enclosing,
		function:  c.registry.NewFunction(name, 0, bytecode.NewChunk()),
		kind:      kind,
	}
	c.fn.locals = append(c.fn.locals, local{depth: 0})
	c.beginScope()

	c.consume(token.LeftParen, "Expect '(' after function name.")
	if !c.check(token.RightParen) {
		for {
			c.fn.function.Arity++
			if c.fn.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after parameters.")
	c.consume(token.LeftBrace, "Expect '{' before function body.")
	c.block()

	fn := c.finishFunction()
	c.fn = enclosing
	c.emitConstant(object.FromObj(fn))
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.fn.kind == TypeScript {
		c.errorAtPrevious("Can't return from top-level code.")
	}

	if c.match(token.Semicolon) {
		c.emitReturn()
	} else {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after return value.")
		c.emitOp(bytecode.OpReturn)
	}
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)

	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)

	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after loop condition.")

		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.check(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RightParen, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endScope()
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}
