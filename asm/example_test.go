package asm_test

import (
	"context"
	"fmt"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/vm"
)

// Shows the main assembler features: function blocks, labels with
// automatic jump direction, and the constant forms.
func ExampleAssembleString() {
	code := `
; doubles its argument
.func double 1
	getlocal 0
	const 2
	mul
	ret
.end

; count down from 3, printing double each value
const 3
defglobal n
loop:
	getglobal n
	const 0
	gt
	jumpf done
	const &double
	getglobal n
	call 1
	print
	getglobal n
	const 1
	sub
	setglobal n
	pop
	jump loop
done:
	const "liftoff"
	print
`

	chunk, err := asm.AssembleString("countdown.pasm", code)
	if err != nil {
		fmt.Println(err)
		return
	}
	if _, err := vm.Run(context.Background(), chunk); err != nil {
		fmt.Println(err)
		return
	}

	// Output:
	// 6
	// 4
	// 2
	// liftoff
}
