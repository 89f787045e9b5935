package asm

import (
	"github.com/arnegrim/tc162/bitfield"
)

// The pack* functions here are the exact inverse of decoder.decodeFields: for
// every format, the bit positions written here are the ones decodeFields
// reads back. Keeping them side by side with the decoder (both built on
// isa.Desc) is what gives the assemble→decode round trip its guarantee.

func packSB(op1 byte, disp8 int32) uint32 {
	return uint32(op1) | bitfield.PackDisp8(disp8)
}

func packSBR(op1 byte, rs1 uint8, disp4 int32) uint32 {
	return uint32(op1) | uint32(rs1)<<12 | bitfield.PackDisp4(disp4)
}

func packSBC(op1 byte, const4 uint8, disp4 int32) uint32 {
	return uint32(op1) | uint32(const4)<<12 | bitfield.PackDisp4(disp4)
}

func packSRCRegConst(op1 byte, rd uint8, const4 uint8) uint32 {
	return uint32(op1) | uint32(rd)<<8 | uint32(const4)<<12
}

func packSRCCmp(op1 byte, rs1 uint8) uint32 {
	return uint32(op1) | uint32(rs1)<<8
}

func packSRR(op1 byte, rd, rs1 uint8) uint32 {
	return uint32(op1) | uint32(rd)<<8 | uint32(rs1)<<12
}

func packSRRSimple(op1 byte) uint32 {
	return uint32(op1)
}

func packRR(op1 byte, op2 uint32, rd, rs1, rs2 uint8) uint32 {
	return uint32(op1) | op2<<20 | uint32(rs1)<<8 | uint32(rs2)<<12 | uint32(rd)<<28
}

func packRC(op1 byte, op2 uint32, rd, rs1 uint8, const9 int32) uint32 {
	return uint32(op1) | op2<<8 | uint32(rs1)<<12 | bitfield.Pack9(const9) | uint32(rd)<<28
}

func packRLC(op1 byte, rd uint8, const16 int32) uint32 {
	return uint32(op1) | uint32(rd)<<8 | (uint32(const16)&0xFFFF)<<12
}

func packBO(op1 byte, rd, rs1 uint8, off10 int32, wb, pre bool) uint32 {
	v := uint32(op1) | uint32(rd)<<8 | uint32(rs1)<<12 | bitfield.PackOff10(off10)
	if wb {
		v |= 1 << 22
	}
	if pre {
		v |= 1 << 23
	}
	return v
}

func packABS(op1 byte, rd uint8, ea uint32) (uint32, bool) {
	off, ok := bitfield.PackOff18(ea)
	if !ok {
		return 0, false
	}
	return uint32(op1) | uint32(rd)<<8 | off, true
}

func packBOP(op1 byte, rd, rs1 uint8, off10 int32) uint32 {
	return uint32(op1) | uint32(rd)<<8 | uint32(rs1)<<12 | bitfield.PackOff10(off10)
}

func packB(op1 byte, disp24 int32) uint32 {
	return uint32(op1) | bitfield.PackDisp24(disp24)
}

func packBAbs(op1 byte, ea uint32) (uint32, bool) {
	off, ok := bitfield.PackOff18(ea)
	if !ok {
		return 0, false
	}
	return uint32(op1) | off, true
}

func packRRIndirect(op1 byte, rs1 uint8) uint32 {
	return uint32(op1) | uint32(rs1)<<8
}

// packBRC and packBRA don't take an op2: once disp15 (bits 30:16) is packed
// at its full width there's no byte left for a shared selector, so op1 alone
// picks the instruction (isa/format.go's sharesOp1 is false for both).
func packBRC(op1 byte, rs1, rs2 uint8, disp int32) uint32 {
	return uint32(op1) | uint32(rs2)<<8 | uint32(rs1)<<12 | bitfield.PackDispBR(disp)
}

func packBRA(op1 byte, a1, a2 uint8, disp int32) uint32 {
	return uint32(op1) | uint32(a2)<<8 | uint32(a1)<<12 | bitfield.PackDispBR(disp)
}

func packBRF(op1 byte, op2 uint32, disp int32) uint32 {
	return uint32(op1) | op2<<8 | bitfield.PackDispBR(disp)
}
