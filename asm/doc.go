/*
Package asm assembles a line-oriented mnemonic syntax into Petrel
bytecode chunks ready to run on the virtual machine.

# Syntax

Comments run from a semicolon to the end of the line. Whitespace
separates tokens and is otherwise insignificant.

A label is an identifier followed by a colon. Jumps may reference a label
before or after its definition; the assembler selects the forward or
backward opcode automatically. Labels are scoped to the chunk they appear
in.

	top:
	  getglobal i
	  const 10
	  lt
	  jumpf done    ; pops the condition, branches when false
	  ...
	  jump top
	done:

Functions are defined with the .func directive, which takes a name and an
arity, and are closed with .end. Function blocks nest. A function becomes
referenceable with the &name constant form after its .end; arguments
occupy local slots 0 through arity-1.

	.func square 1
	  getlocal 0
	  getlocal 0
	  mul
	  ret
	.end

	const &square
	const 7
	call 1
	print           ; 49

# Instructions

With no operand:

	nop pop print ret nil true false not neg
	add sub mul div mod
	eq ne lt le gt ge

With one operand:

	const 3.5       ; number, string, nil, true, false, or &function
	const "text"
	const &name
	getlocal 0      ; local slot index
	setlocal 0
	getglobal x     ; global name
	setglobal x
	defglobal x
	call 2          ; argument count
	jump label
	jumpf label

# Errors

Assembly problems do not stop at the first finding: every diagnostic is
collected and returned together, each prefixed with its file, line, and
column. The resulting chunk is validated before it is returned.
*/
package asm
