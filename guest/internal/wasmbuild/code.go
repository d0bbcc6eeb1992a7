package wasmbuild

const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opCall        byte = 0x10
	opDrop        byte = 0x1A
	opLocalGet    byte = 0x20
	opLocalSet    byte = 0x21
	opI32Const    byte = 0x41
	opI64Const    byte = 0x42
	opI32Eqz      byte = 0x45
	opI64LtS      byte = 0x53
	opI32Add      byte = 0x6A
	opI64ShrU     byte = 0x88
	opI32WrapI64  byte = 0xA7

	blockEmpty byte = 0x40
)

// Code is a function body in construction. Methods return the receiver so
// instructions chain. The final end is added by Module.Encode.
type Code struct {
	w writer
}

// Body starts an empty function body.
func Body() *Code { return &Code{} }

func (c *Code) op(b byte) *Code {
	c.w.byte(b)
	return c
}

func (c *Code) Unreachable() *Code { return c.op(opUnreachable) }
func (c *Code) Drop() *Code        { return c.op(opDrop) }
func (c *Code) End() *Code         { return c.op(opEnd) }
func (c *Code) I32Eqz() *Code      { return c.op(opI32Eqz) }
func (c *Code) I64LtS() *Code      { return c.op(opI64LtS) }
func (c *Code) I32Add() *Code      { return c.op(opI32Add) }
func (c *Code) I64ShrU() *Code     { return c.op(opI64ShrU) }
func (c *Code) I32WrapI64() *Code  { return c.op(opI32WrapI64) }

// Block opens a block with no result.
func (c *Code) Block() *Code {
	c.w.byte(opBlock)
	c.w.byte(blockEmpty)
	return c
}

// Loop opens a loop with no result.
func (c *Code) Loop() *Code {
	c.w.byte(opLoop)
	c.w.byte(blockEmpty)
	return c
}

func (c *Code) Br(depth uint32) *Code {
	c.w.byte(opBr)
	c.w.u32(depth)
	return c
}

func (c *Code) BrIf(depth uint32) *Code {
	c.w.byte(opBrIf)
	c.w.u32(depth)
	return c
}

func (c *Code) Call(fn uint32) *Code {
	c.w.byte(opCall)
	c.w.u32(fn)
	return c
}

func (c *Code) LocalGet(i uint32) *Code {
	c.w.byte(opLocalGet)
	c.w.u32(i)
	return c
}

func (c *Code) LocalSet(i uint32) *Code {
	c.w.byte(opLocalSet)
	c.w.u32(i)
	return c
}

func (c *Code) I32Const(v int32) *Code {
	c.w.byte(opI32Const)
	c.w.s64(int64(v))
	return c
}

func (c *Code) I64Const(v int64) *Code {
	c.w.byte(opI64Const)
	c.w.s64(v)
	return c
}
