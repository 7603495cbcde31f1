package n64

// opcodeInfo is a bitset describing an RSP instruction's operand and
// side-effect shape, mirroring original_source/rsp/opcodes_priv.h's
// OPCODE_INFO_* flags composed via its INFO1..INFO5 macros. The flags are
// recorded in the decode tables only: no scoreboard or stall logic reads
// them, and the interpreter in rsp.go issues one instruction per Step
// without load-use stalls.
type opcodeInfo uint8

const (
	infoNone   opcodeInfo = 0
	infoNeedRS opcodeInfo = 1 << 0
	infoNeedRT opcodeInfo = 1 << 1
	infoBranch opcodeInfo = 1 << 2
	infoLoad   opcodeInfo = 1 << 3
	infoStore  opcodeInfo = 1 << 4
	infoVector opcodeInfo = 1 << 5
	infoNeedVS opcodeInfo = 1 << 6
	infoNeedVT opcodeInfo = 1 << 7
)

// rspOp names one decoded scalar or vector mnemonic. The vector path
// (execVector) switches on it via vectorFunctTable; the scalar interpreter
// (RSP.execute) switches on the raw opcode/function bits, and the scalar
// tables below are read only by the disassembler in rsp_disasm.go.
type rspOp int

const (
	opInvalid rspOp = iota
	opADDI
	opADDIU
	opANDI
	opORI
	opXORI
	opSLTI
	opSLTIU
	opLUI
	opADDU
	opSUBU
	opAND
	opOR
	opXOR
	opNOR
	opSLT
	opSLTU
	opSLL
	opSRL
	opSRA
	opSLLV
	opSRLV
	opSRAV
	opJ
	opJAL
	opJR
	opJALR
	opBEQ
	opBNE
	opBLEZ
	opBGTZ
	opBLTZ
	opBGEZ
	opBLTZAL
	opBGEZAL
	opLB
	opLBU
	opLH
	opLHU
	opLW
	opSB
	opSH
	opSW
	opMFC0
	opMTC0
	opBREAK
	opNOP

	opLQV
	opSQV
	opLDV
	opSDV
	opLSV
	opSSV
	opLBV
	opSBV
	opMTC2
	opMFC2
	opCFC2
	opCTC2

	opVADD
	opVSUB
	opVABS
	opVADDC
	opVSUBC
	opVAND
	opVOR
	opVXOR
	opVNAND
	opVNOR
	opVNXOR
	opVMULF
	opVMULU
	opVMUDH
	opVMUDL
	opVMUDM
	opVMUDN
	opVMACF
	opVMACU
	opVMADH
	opVMADL
	opVMADM
	opVMADN
	opVMACQ
	opVMRG
	opVLT
	opVEQ
	opVNE
	opVGE
	opVCH
	opVCL
	opVCR
	opVSAR
	opVRCP
	opVRCPL
	opVRCPH
	opVRSQ
	opVRSQL
	opVRSQH
	opVMOV
	opVNOP
)

type opcodeEntry struct {
	op   rspOp
	info opcodeInfo
}

// scalarOpcodeTable decodes the primary 6-bit opcode field, matching the
// teacher's data-driven [256]Instruction{} literal-array style rather than a
// cascading switch.
var scalarOpcodeTable = [64]opcodeEntry{
	0x00: {opInvalid, infoNone}, // SPECIAL, resolved via functTable
	0x01: {opInvalid, infoBranch | infoNeedRS},
	0x02: {opJ, infoBranch},
	0x03: {opJAL, infoBranch},
	0x04: {opBEQ, infoBranch | infoNeedRS | infoNeedRT},
	0x05: {opBNE, infoBranch | infoNeedRS | infoNeedRT},
	0x06: {opBLEZ, infoBranch | infoNeedRS},
	0x07: {opBGTZ, infoBranch | infoNeedRS},
	0x08: {opADDI, infoNeedRS},
	0x09: {opADDIU, infoNeedRS},
	0x0A: {opSLTI, infoNeedRS},
	0x0B: {opSLTIU, infoNeedRS},
	0x0C: {opANDI, infoNeedRS},
	0x0D: {opORI, infoNeedRS},
	0x0E: {opXORI, infoNeedRS},
	0x0F: {opLUI, infoNone},
	0x10: {opInvalid, infoNone}, // COP0
	0x12: {opInvalid, infoVector},
	0x20: {opLB, infoNeedRS | infoLoad},
	0x21: {opLH, infoNeedRS | infoLoad},
	0x23: {opLW, infoNeedRS | infoLoad},
	0x24: {opLBU, infoNeedRS | infoLoad},
	0x25: {opLHU, infoNeedRS | infoLoad},
	0x28: {opSB, infoNeedRS | infoNeedRT | infoStore},
	0x29: {opSH, infoNeedRS | infoNeedRT | infoStore},
	0x2B: {opSW, infoNeedRS | infoNeedRT | infoStore},
	0x32: {opLQV, infoNeedRS | infoNeedVT | infoLoad},
	0x36: {opSQV, infoNeedRS | infoNeedVT | infoStore},
}

// functTable decodes the SPECIAL (opcode 0) instruction's low 6 function
// bits.
var functTable = [64]opcodeEntry{
	0x00: {opSLL, infoNeedRT},
	0x02: {opSRL, infoNeedRT},
	0x03: {opSRA, infoNeedRT},
	0x04: {opSLLV, infoNeedRS | infoNeedRT},
	0x06: {opSRLV, infoNeedRS | infoNeedRT},
	0x07: {opSRAV, infoNeedRS | infoNeedRT},
	0x08: {opJR, infoBranch | infoNeedRS},
	0x09: {opJALR, infoBranch | infoNeedRS},
	0x0D: {opBREAK, infoNone},
	0x20: {opADDU, infoNeedRS | infoNeedRT},
	0x21: {opADDU, infoNeedRS | infoNeedRT},
	0x22: {opSUBU, infoNeedRS | infoNeedRT},
	0x23: {opSUBU, infoNeedRS | infoNeedRT},
	0x24: {opAND, infoNeedRS | infoNeedRT},
	0x25: {opOR, infoNeedRS | infoNeedRT},
	0x26: {opXOR, infoNeedRS | infoNeedRT},
	0x27: {opNOR, infoNeedRS | infoNeedRT},
	0x2A: {opSLT, infoNeedRS | infoNeedRT},
	0x2B: {opSLTU, infoNeedRS | infoNeedRT},
}

// cop0OpTable decodes COP0-format (opcode 0x10) RS-field sub-opcodes: MFC0
// reads a SP control/status register into a GPR, MTC0 writes one.
var cop0OpTable = map[uint32]rspOp{
	0x00: opMFC0,
	0x04: opMTC0,
}

// cop2OpTable decodes the COP2 vector-unit format (opcode 0x12): the high RS
// bit distinguishes scalar element transfers (MFC2/MTC2/CFC2/CTC2) from
// vector-vector arithmetic, which is instead decoded by the low 6 function
// bits in vectorFunctTable.
var cop2OpTable = map[uint32]rspOp{
	0x00: opMFC2,
	0x02: opCFC2,
	0x04: opMTC2,
	0x06: opCTC2,
}

var vectorFunctTable = [64]rspOp{
	0x00: opVMULF,
	0x01: opVMULU,
	0x04: opVMUDL,
	0x05: opVMUDM,
	0x06: opVMUDN,
	0x07: opVMUDH,
	0x08: opVMACF,
	0x09: opVMACU,
	0x0C: opVMADL,
	0x0D: opVMADM,
	0x0E: opVMADN,
	0x0F: opVMADH,
	0x10: opVADD,
	0x11: opVSUB,
	0x13: opVABS,
	0x14: opVADDC,
	0x15: opVSUBC,
	0x1D: opVSAR,
	0x20: opVLT,
	0x21: opVEQ,
	0x22: opVNE,
	0x23: opVGE,
	0x24: opVCL,
	0x25: opVCH,
	0x26: opVCR,
	0x27: opVMRG,
	0x28: opVAND,
	0x29: opVNAND,
	0x2A: opVOR,
	0x2B: opVNOR,
	0x2C: opVXOR,
	0x2D: opVNXOR,
	0x30: opVRCP,
	0x31: opVRCPL,
	0x32: opVRCPH,
	0x33: opVMOV,
	0x34: opVRSQ,
	0x35: opVRSQL,
	0x36: opVRSQH,
	0x37: opVNOP,
}
