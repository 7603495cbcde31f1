package n64

import "fmt"

// rspOpName names tables for a debug trace line, grounded in the teacher's
// disasembler.go pattern of walking a data-driven opcode table rather than
// re-switching on raw bits when producing human-readable trace output.
var rspOpName = map[rspOp]string{
	opADDI: "ADDI", opADDIU: "ADDIU", opANDI: "ANDI", opORI: "ORI", opXORI: "XORI",
	opSLTI: "SLTI", opSLTIU: "SLTIU", opLUI: "LUI", opADDU: "ADDU", opSUBU: "SUBU",
	opAND: "AND", opOR: "OR", opXOR: "XOR", opNOR: "NOR", opSLT: "SLT", opSLTU: "SLTU",
	opSLL: "SLL", opSRL: "SRL", opSRA: "SRA", opSLLV: "SLLV", opSRLV: "SRLV", opSRAV: "SRAV",
	opJ: "J", opJAL: "JAL", opJR: "JR", opJALR: "JALR",
	opBEQ: "BEQ", opBNE: "BNE", opBLEZ: "BLEZ", opBGTZ: "BGTZ",
	opBLTZ: "BLTZ", opBGEZ: "BGEZ", opBLTZAL: "BLTZAL", opBGEZAL: "BGEZAL",
	opLB: "LB", opLBU: "LBU", opLH: "LH", opLHU: "LHU", opLW: "LW",
	opSB: "SB", opSH: "SH", opSW: "SW",
	opMFC0: "MFC0", opMTC0: "MTC0", opBREAK: "BREAK", opNOP: "NOP",
	opLQV: "LQV", opSQV: "SQV",
	opVADD: "VADD", opVSUB: "VSUB", opVMULF: "VMULF", opVMACF: "VMACF",
	opVMUDN: "VMUDN", opVMADN: "VMADN", opVAND: "VAND", opVOR: "VOR", opVXOR: "VXOR",
	opVLT: "VLT", opVEQ: "VEQ", opVNE: "VNE", opVGE: "VGE", opVMRG: "VMRG",
	opVSAR: "VSAR", opVRCP: "VRCP", opVRSQ: "VRSQ",
}

// decodeMnemonic classifies a raw RSP instruction word through the opcode
// tables in rsp_opcodes.go, for trace logging (the SP equivalent of the
// teacher's CPU instruction disassembler).
func decodeMnemonic(word uint32) string {
	op := word >> 26
	funct := word & 0x3F

	if op == 0x00 {
		if e, ok := functTable[funct]; ok && e.op != opInvalid {
			return rspOpName[e.op]
		}
		return "SPECIAL?"
	}
	if op == 0x10 {
		rs := (word >> 21) & 0x1F
		if name, ok := cop0OpTable[rs]; ok {
			return rspOpName[name]
		}
		return "COP0?"
	}
	if op == 0x12 {
		rs := (word >> 21) & 0x1F
		if rs&0x10 == 0 {
			if name, ok := cop2OpTable[rs]; ok {
				return rspOpName[name]
			}
			return "COP2?"
		}
		return rspOpName[vectorFunctTable[funct]]
	}
	if e := scalarOpcodeTable[op]; e.op != opInvalid {
		return rspOpName[e.op]
	}
	return fmt.Sprintf("OP%02X", op)
}

// Trace writes one disassembled line for the instruction about to execute,
// intended for a LogSink attached via Device construction the way the
// teacher's debug writer traces CPU fetches.
func (r *RSP) Trace(log LogSink) {
	if log == nil || r.halted {
		return
	}
	word := r.fetch(r.pc)
	log.Emit(fmt.Sprintf("sp pc=%04x %-8s raw=%08x", r.pc, decodeMnemonic(word), word))
}
