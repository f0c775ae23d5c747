// Package rv encodes and decodes the RV32I instructions that the debug module
// synthesizes and that the target models execute.
//
// Immediate layouts, bit 0 being the least significant bit of the word:
//
//	I-type  imm[11:0]  -> inst[31:20]
//	S-type  imm[11:5]  -> inst[31:25], imm[4:0] -> inst[11:7]
//	J-type  imm[20]    -> inst[31]
//	        imm[10:1]  -> inst[30:21]
//	        imm[11]    -> inst[20]
//	        imm[19:12] -> inst[19:12]
//
// The J-type immediate is a signed, even byte offset in [-2^20, 2^20).
package rv

import (
	"fmt"
)

// Major opcodes.
const (
	OpcodeLoad   uint32 = 0x03
	OpcodeOpImm  uint32 = 0x13
	OpcodeStore  uint32 = 0x23
	OpcodeJAL    uint32 = 0x6f
	OpcodeSystem uint32 = 0x73
)

// Fixed encodings.
const (
	EBREAK uint32 = 0x00100073
	NOP    uint32 = 0x00000013
)

// Load and store widths, as funct3 values.
const (
	Funct3Byte         uint32 = 0
	Funct3Half         uint32 = 1
	Funct3Word         uint32 = 2
	Funct3ByteUnsigned uint32 = 4
	Funct3HalfUnsigned uint32 = 5
)

// Funct3 of the ADDI instruction.
const Funct3ADDI uint32 = 0

// Opcode returns the major opcode of an instruction.
func Opcode(inst uint32) uint32 {
	return inst & 0x7f
}

// Rd returns the destination register field.
func Rd(inst uint32) uint32 {
	return (inst >> 7) & 0x1f
}

// Funct3 returns the funct3 field.
func Funct3(inst uint32) uint32 {
	return (inst >> 12) & 0x7
}

// Rs1 returns the first source register field.
func Rs1(inst uint32) uint32 {
	return (inst >> 15) & 0x1f
}

// Rs2 returns the second source register field.
func Rs2(inst uint32) uint32 {
	return (inst >> 20) & 0x1f
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func immMustFit(imm int32, bits uint) {
	lo := -(int32(1) << (bits - 1))
	hi := int32(1)<<(bits-1) - 1

	if imm < lo || imm > hi {
		panic(fmt.Sprintf("immediate %d does not fit in %d bits", imm, bits))
	}
}

func regMustBeValid(r uint32) {
	if r > 31 {
		panic(fmt.Sprintf("invalid register x%d", r))
	}
}

// EncodeI builds an I-type instruction.
func EncodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	regMustBeValid(rd)
	regMustBeValid(rs1)
	immMustFit(imm, 12)

	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// ImmI decodes the immediate of an I-type instruction.
func ImmI(inst uint32) int32 {
	return int32(inst) >> 20
}

// EncodeS builds an S-type instruction.
func EncodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	regMustBeValid(rs1)
	regMustBeValid(rs2)
	immMustFit(imm, 12)

	u := uint32(imm)

	return (u>>5&0x7f)<<25 | rs2<<20 | rs1<<15 | funct3<<12 |
		(u&0x1f)<<7 | opcode
}

// ImmS decodes the immediate of an S-type instruction.
func ImmS(inst uint32) int32 {
	v := (inst>>25)<<5 | (inst>>7)&0x1f
	return signExtend(v, 12)
}

// EncodeJ builds a J-type instruction.
func EncodeJ(opcode, rd uint32, offset int32) uint32 {
	regMustBeValid(rd)

	if offset&1 != 0 {
		panic(fmt.Sprintf("jump offset %d is not even", offset))
	}

	immMustFit(offset, 21)

	u := uint32(offset)

	return (u>>20&0x1)<<31 |
		(u>>1&0x3ff)<<21 |
		(u>>11&0x1)<<20 |
		(u>>12&0xff)<<12 |
		rd<<7 | opcode
}

// ImmJ decodes the signed byte offset of a J-type instruction.
func ImmJ(inst uint32) int32 {
	v := (inst>>31&0x1)<<20 |
		(inst>>21&0x3ff)<<1 |
		(inst>>20&0x1)<<11 |
		(inst>>12&0xff)<<12

	return signExtend(v, 21)
}

// JAL builds "jal rd, offset".
func JAL(rd uint32, offset int32) uint32 {
	return EncodeJ(OpcodeJAL, rd, offset)
}

// Load builds "l{b,h,w}[u] rd, imm(rs1)" with the width given as funct3.
func Load(width, rd, rs1 uint32, imm int32) uint32 {
	return EncodeI(OpcodeLoad, rd, width, rs1, imm)
}

// Store builds "s{b,h,w} rs2, imm(rs1)" with the width given as funct3.
func Store(width, rs1, rs2 uint32, imm int32) uint32 {
	return EncodeS(OpcodeStore, width, rs1, rs2, imm)
}

// ADDI builds "addi rd, rs1, imm".
func ADDI(rd, rs1 uint32, imm int32) uint32 {
	return EncodeI(OpcodeOpImm, rd, Funct3ADDI, rs1, imm)
}
