package asm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/op"
)

// Identifiers may start with a letter, underscore, dot (directives), or
// ampersand (function references), and continue with letters, digits, and
// underscores.
func isIdentRune(ch rune, i int) bool {
	if i == 0 {
		return ch == '_' || ch == '.' || ch == '&' || unicode.IsLetter(ch)
	}
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// Mnemonics that emit a single opcode with no operand.
var simpleOps = map[string]op.Code{
	"nop":   op.Nop,
	"pop":   op.PopTop,
	"print": op.Print,
	"ret":   op.ReturnValue,
	"nil":   op.Nil,
	"true":  op.True,
	"false": op.False,
	"not":   op.UnaryNot,
	"neg":   op.UnaryNegative,
}

var binaryOps = map[string]op.BinaryOpType{
	"add": op.Add,
	"sub": op.Subtract,
	"mul": op.Multiply,
	"div": op.Divide,
	"mod": op.Modulo,
}

var compareOps = map[string]op.CompareOpType{
	"lt": op.LessThan,
	"le": op.LessThanOrEqual,
	"eq": op.Equal,
	"ne": op.NotEqual,
	"gt": op.GreaterThan,
	"ge": op.GreaterThanOrEqual,
}

// labelRef tracks one named label within a chunk scope, from its first
// mention to its definition.
type labelRef struct {
	label    *bytecode.Label
	defined  bool
	firstUse scanner.Position
}

// chunkScope is the assembly state for one chunk: the top-level program or
// the body of a .func block. Labels are scoped to the chunk they appear in.
type chunkScope struct {
	name    string
	arity   int
	openPos scanner.Position
	builder *bytecode.Builder
	labels  map[string]*labelRef
}

type parser struct {
	filename  string
	s         scanner.Scanner
	scopes    []*chunkScope
	functions map[string]*bytecode.Function
	errs      *multierror.Error
}

func newParser(filename, source string) *parser {
	p := &parser{
		filename:  filename,
		functions: make(map[string]*bytecode.Function),
	}
	p.s.Init(strings.NewReader(source))
	p.s.Filename = filename
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	p.s.IsIdentRune = isIdentRune
	p.s.Error = func(s *scanner.Scanner, msg string) {
		pos := s.Position
		if !pos.IsValid() {
			pos = s.Pos()
		}
		p.errorf(pos, "%s", msg)
	}
	p.pushScope("main", 0, scanner.Position{})
	p.currentScope().builder.SetSource(source)
	return p
}

func (p *parser) errorf(pos scanner.Position, format string, args ...any) {
	p.errs = multierror.Append(p.errs, fmt.Errorf("%s: %s", pos, fmt.Sprintf(format, args...)))
}

func (p *parser) currentScope() *chunkScope {
	return p.scopes[len(p.scopes)-1]
}

func (p *parser) pushScope(name string, arity int, openPos scanner.Position) {
	builder := bytecode.NewBuilder(name)
	builder.SetFilename(p.filename)
	p.scopes = append(p.scopes, &chunkScope{
		name:    name,
		arity:   arity,
		openPos: openPos,
		builder: builder,
		labels:  make(map[string]*labelRef),
	})
}

func (p *parser) popScope() *chunkScope {
	scope := p.currentScope()
	p.scopes = p.scopes[:len(p.scopes)-1]
	return scope
}

// finalizeScope reports the scope's undefined labels and builds its chunk.
// Returns nil when the chunk could not be built; the reasons are already
// recorded.
func (p *parser) finalizeScope(scope *chunkScope) *bytecode.Chunk {
	names := make([]string, 0, len(scope.labels))
	for name := range scope.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := scope.labels[name]
		if !ref.defined {
			p.errorf(ref.firstUse, "label %q is never defined", name)
			// Bind the label so the builder does not report the same
			// problem again without a source position
			scope.builder.MarkLabel(ref.label)
		}
	}
	chunk, err := scope.builder.Build()
	if err != nil {
		p.errs = multierror.Append(p.errs, err)
		return nil
	}
	return chunk
}

func (p *parser) parse() (*bytecode.Chunk, error) {
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		switch tok {
		case ';':
			p.skipComment()
		case scanner.Ident:
			text := p.s.TokenText()
			switch {
			case strings.HasPrefix(text, "."):
				p.directive(text)
			case p.s.Peek() == ':':
				p.s.Next()
				p.defineLabel(text)
			default:
				p.instruction(text)
			}
		default:
			p.errorf(p.s.Position, "unexpected %q", p.s.TokenText())
		}
	}

	// Any scope above the top level is a .func block that was never closed
	for len(p.scopes) > 1 {
		scope := p.popScope()
		p.errorf(scope.openPos, ".func %q is never closed", scope.name)
		p.finalizeScope(scope)
	}

	main := p.finalizeScope(p.popScope())
	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := bytecode.Validate(main); err != nil {
		return nil, err
	}
	return main, nil
}

// skipComment consumes input through the end of the line.
func (p *parser) skipComment() {
	for ch := p.s.Peek(); ch != '\n' && ch != scanner.EOF; ch = p.s.Peek() {
		p.s.Next()
	}
}

func (p *parser) defineLabel(name string) {
	scope := p.currentScope()
	ref, ok := scope.labels[name]
	if !ok {
		ref = &labelRef{label: scope.builder.NewLabel()}
		scope.labels[name] = ref
	}
	if ref.defined {
		p.errorf(p.s.Position, "label %q is already defined", name)
		return
	}
	ref.defined = true
	scope.builder.MarkLabel(ref.label)
}

func (p *parser) directive(text string) {
	pos := p.s.Position
	switch text {
	case ".func":
		name, ok := p.identOperand(".func")
		if !ok {
			return
		}
		arity, ok := p.uintOperand(".func")
		if !ok {
			return
		}
		if _, exists := p.functions[name]; exists {
			p.errorf(pos, "function %q is already defined", name)
		}
		p.pushScope(name, arity, pos)
	case ".end":
		if len(p.scopes) == 1 {
			p.errorf(pos, "unexpected .end outside a function")
			return
		}
		scope := p.popScope()
		chunk := p.finalizeScope(scope)
		if chunk == nil {
			// Keep a placeholder so later references do not cascade
			chunk, _ = bytecode.NewBuilder(scope.name).Build()
		}
		id, err := uuid.NewV4()
		if err != nil {
			p.errorf(pos, "generating function id: %s", err)
			return
		}
		p.functions[scope.name] = bytecode.NewFunction(bytecode.FunctionParams{
			ID:    id.String(),
			Name:  scope.name,
			Arity: scope.arity,
			Chunk: chunk,
		})
	default:
		p.errorf(pos, "unknown directive %q", text)
	}
}

func (p *parser) instruction(text string) {
	pos := p.s.Position
	scope := p.currentScope()
	scope.builder.SetLine(pos.Line)

	if code, ok := simpleOps[text]; ok {
		scope.builder.Emit(code)
		return
	}
	if bop, ok := binaryOps[text]; ok {
		scope.builder.Emit(op.BinaryOp, op.Code(bop))
		return
	}
	if cop, ok := compareOps[text]; ok {
		scope.builder.Emit(op.CompareOp, op.Code(cop))
		return
	}

	switch text {
	case "const":
		p.constInstruction()
	case "getlocal":
		if n, ok := p.uintOperand(text); ok {
			scope.builder.Emit(op.LoadLocal, op.Code(n))
		}
	case "setlocal":
		if n, ok := p.uintOperand(text); ok {
			scope.builder.Emit(op.StoreLocal, op.Code(n))
		}
	case "call":
		if n, ok := p.uintOperand(text); ok {
			scope.builder.Emit(op.Call, op.Code(n))
		}
	case "defglobal":
		if name, ok := p.identOperand(text); ok {
			scope.builder.Emit(op.DefineGlobal, scope.builder.Constant(name))
		}
	case "getglobal":
		if name, ok := p.identOperand(text); ok {
			scope.builder.Emit(op.LoadGlobal, scope.builder.Constant(name))
		}
	case "setglobal":
		if name, ok := p.identOperand(text); ok {
			scope.builder.Emit(op.StoreGlobal, scope.builder.Constant(name))
		}
	case "jump":
		if label, ok := p.labelOperand(text); ok {
			scope.builder.EmitJump(op.JumpForward, label)
		}
	case "jumpf":
		if label, ok := p.labelOperand(text); ok {
			scope.builder.EmitJump(op.PopJumpForwardIfFalse, label)
		}
	default:
		p.errorf(pos, "unknown instruction %q", text)
	}
}

// constInstruction parses the operand of a const instruction: a number, a
// quoted string, nil, true, false, or an &name function reference.
func (p *parser) constInstruction() {
	scope := p.currentScope()
	tok := p.s.Scan()
	pos := p.s.Position
	text := p.s.TokenText()
	switch tok {
	case scanner.Int, scanner.Float:
		value, ok := p.parseNumber(tok, text, pos)
		if !ok {
			return
		}
		scope.builder.Emit(op.LoadConst, scope.builder.Constant(value))
	case '-':
		tok = p.s.Scan()
		pos = p.s.Position
		text = p.s.TokenText()
		if tok != scanner.Int && tok != scanner.Float {
			p.errorf(pos, "const expects a number after '-' (got %q)", text)
			return
		}
		value, ok := p.parseNumber(tok, text, pos)
		if !ok {
			return
		}
		scope.builder.Emit(op.LoadConst, scope.builder.Constant(-value))
	case scanner.String:
		value, err := strconv.Unquote(text)
		if err != nil {
			p.errorf(pos, "invalid string literal %s", text)
			return
		}
		scope.builder.Emit(op.LoadConst, scope.builder.Constant(value))
	case scanner.Ident:
		switch {
		case text == "nil":
			scope.builder.Emit(op.LoadConst, scope.builder.Constant(nil))
		case text == "true":
			scope.builder.Emit(op.LoadConst, scope.builder.Constant(true))
		case text == "false":
			scope.builder.Emit(op.LoadConst, scope.builder.Constant(false))
		case strings.HasPrefix(text, "&"):
			name := text[1:]
			fn, ok := p.functions[name]
			if !ok {
				p.errorf(pos, "undefined function %q", name)
				return
			}
			scope.builder.Emit(op.LoadConst, scope.builder.Constant(fn))
		default:
			p.errorf(pos, "const expects a number, string, or &function (got %q)", text)
		}
	default:
		p.errorf(pos, "const expects a number, string, or &function (got %q)", text)
	}
}

func (p *parser) parseNumber(tok rune, text string, pos scanner.Position) (float64, bool) {
	if tok == scanner.Int {
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			p.errorf(pos, "invalid number %q", text)
			return 0, false
		}
		return float64(n), true
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.errorf(pos, "invalid number %q", text)
		return 0, false
	}
	return value, true
}

// uintOperand parses a non-negative integer operand that fits in an
// instruction slot.
func (p *parser) uintOperand(mnemonic string) (int, bool) {
	tok := p.s.Scan()
	pos := p.s.Position
	text := p.s.TokenText()
	if tok != scanner.Int {
		p.errorf(pos, "%s expects a non-negative integer (got %q)", mnemonic, text)
		return 0, false
	}
	n, err := strconv.ParseInt(text, 0, 32)
	if err != nil || n < 0 || n > 65535 {
		p.errorf(pos, "%s operand %q is out of range", mnemonic, text)
		return 0, false
	}
	return int(n), true
}

// identOperand parses a plain identifier operand, such as a global name.
func (p *parser) identOperand(mnemonic string) (string, bool) {
	tok := p.s.Scan()
	pos := p.s.Position
	text := p.s.TokenText()
	if tok != scanner.Ident || strings.HasPrefix(text, ".") || strings.HasPrefix(text, "&") {
		p.errorf(pos, "%s expects an identifier (got %q)", mnemonic, text)
		return "", false
	}
	return text, true
}

// labelOperand parses a label name, creating the label on first mention so
// jumps may precede the definition.
func (p *parser) labelOperand(mnemonic string) (*bytecode.Label, bool) {
	tok := p.s.Scan()
	pos := p.s.Position
	text := p.s.TokenText()
	if tok != scanner.Ident || strings.HasPrefix(text, ".") || strings.HasPrefix(text, "&") {
		p.errorf(pos, "%s expects a label name (got %q)", mnemonic, text)
		return nil, false
	}
	scope := p.currentScope()
	ref, ok := scope.labels[text]
	if !ok {
		ref = &labelRef{label: scope.builder.NewLabel(), firstUse: pos}
		scope.labels[text] = ref
	}
	return ref.label, true
}
