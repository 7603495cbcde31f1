package n64

// mipsInfo is the VR4300 analog of the RSP's opcodeInfo bitset (spec.md §3
// "decoded-operation record carries ... an 'info' bitset naming
// source/result requirements").
type mipsInfo uint16

const (
	mInfoNeedRS mipsInfo = 1 << 0
	mInfoNeedRT mipsInfo = 1 << 1
	mInfoBranch mipsInfo = 1 << 2
	mInfoLoad   mipsInfo = 1 << 3
	mInfoStore  mipsInfo = 1 << 4
	mInfoLikely mipsInfo = 1 << 5
	mInfoTrap   mipsInfo = 1 << 6
	mInfoCop0   mipsInfo = 1 << 7
)

type mipsOp int

const (
	mOpInvalid mipsOp = iota
	mOpADDI
	mOpADDIU
	mOpDADDI
	mOpDADDIU
	mOpANDI
	mOpORI
	mOpXORI
	mOpLUI
	mOpSLTI
	mOpSLTIU
	mOpADD
	mOpADDU
	mOpSUB
	mOpSUBU
	mOpDADD
	mOpDADDU
	mOpDSUB
	mOpDSUBU
	mOpAND
	mOpOR
	mOpXOR
	mOpNOR
	mOpSLT
	mOpSLTU
	mOpSLL
	mOpSRL
	mOpSRA
	mOpSLLV
	mOpSRLV
	mOpSRAV
	mOpDSLL
	mOpDSRL
	mOpDSRA
	mOpDSLLV
	mOpDSLL32
	mOpDSRL32
	mOpDSRA32
	mOpJ
	mOpJAL
	mOpJR
	mOpJALR
	mOpBEQ
	mOpBNE
	mOpBLEZ
	mOpBGTZ
	mOpBLTZ
	mOpBGEZ
	mOpBLTZAL
	mOpBGEZAL
	mOpBEQL
	mOpBNEL
	mOpBLEZL
	mOpBGTZL
	mOpLB
	mOpLBU
	mOpLH
	mOpLHU
	mOpLW
	mOpLWU
	mOpLD
	mOpSB
	mOpSH
	mOpSW
	mOpSD
	mOpMULT
	mOpMULTU
	mOpDIV
	mOpDIVU
	mOpDMULT
	mOpDMULTU
	mOpDDIV
	mOpDDIVU
	mOpMFHI
	mOpMTHI
	mOpMFLO
	mOpMTLO
	mOpMFC0
	mOpMTC0
	mOpDMFC0
	mOpDMTC0
	mOpTLBWI
	mOpTLBWR
	mOpTLBR
	mOpTLBP
	mOpERET
	mOpSYSCALL
	mOpBREAK
	mOpCACHE
	mOpNOP
	mOpMFC1
	mOpMTC1
	mOpCFC1
	mOpCTC1
	mOpLWC1
	mOpSWC1
	mOpFPUCompute
	mOpBC1
)

// decodedInstr is the per-instruction record that flows through the
// pipeline latches; the raw register index fields (rs, rt, rd) are decoded
// once in IC->RF and the register contents are filled in by RF.
type decodedInstr struct {
	pc   uint64
	raw  uint32
	op   mipsOp
	info mipsInfo

	rs, rt, rd, sa uint32
	imm            uint64 // sign-extended 16-bit immediate
	target         uint32

	rsVal, rtVal uint64

	destReg uint32
}

func signExt16(v uint16) uint64 { return uint64(int64(int16(v))) }

func decode(word uint32, pc uint64) decodedInstr {
	op := word >> 26
	rs := (word >> 21) & 0x1F
	rt := (word >> 16) & 0x1F
	rd := (word >> 11) & 0x1F
	sa := (word >> 6) & 0x1F
	funct := word & 0x3F
	imm := signExt16(uint16(word))
	target := word & 0x03FFFFFF

	d := decodedInstr{pc: pc, raw: word, rs: rs, rt: rt, rd: rd, sa: sa, imm: imm, target: target}

	switch op {
	case 0x00: // SPECIAL
		switch funct {
		case 0x00:
			d.op, d.info, d.destReg = mOpSLL, mInfoNeedRT, rd
		case 0x02:
			d.op, d.info, d.destReg = mOpSRL, mInfoNeedRT, rd
		case 0x03:
			d.op, d.info, d.destReg = mOpSRA, mInfoNeedRT, rd
		case 0x04:
			d.op, d.info, d.destReg = mOpSLLV, mInfoNeedRS|mInfoNeedRT, rd
		case 0x06:
			d.op, d.info, d.destReg = mOpSRLV, mInfoNeedRS|mInfoNeedRT, rd
		case 0x07:
			d.op, d.info, d.destReg = mOpSRAV, mInfoNeedRS|mInfoNeedRT, rd
		case 0x08:
			d.op, d.info = mOpJR, mInfoBranch|mInfoNeedRS
		case 0x09:
			d.op, d.info, d.destReg = mOpJALR, mInfoBranch|mInfoNeedRS, rd
		case 0x0C:
			d.op, d.info = mOpSYSCALL, mInfoTrap
		case 0x0D:
			d.op, d.info = mOpBREAK, mInfoTrap
		case 0x10:
			d.op, d.destReg = mOpMFHI, rd
		case 0x11:
			d.op, d.info = mOpMTHI, mInfoNeedRS
		case 0x12:
			d.op, d.destReg = mOpMFLO, rd
		case 0x13:
			d.op, d.info = mOpMTLO, mInfoNeedRS
		case 0x14:
			d.op, d.info, d.destReg = mOpDSLLV, mInfoNeedRS|mInfoNeedRT, rd
		case 0x18:
			d.op, d.info = mOpMULT, mInfoNeedRS|mInfoNeedRT
		case 0x19:
			d.op, d.info = mOpMULTU, mInfoNeedRS|mInfoNeedRT
		case 0x1A:
			d.op, d.info = mOpDIV, mInfoNeedRS|mInfoNeedRT
		case 0x1B:
			d.op, d.info = mOpDIVU, mInfoNeedRS|mInfoNeedRT
		case 0x1C:
			d.op, d.info = mOpDMULT, mInfoNeedRS|mInfoNeedRT
		case 0x1D:
			d.op, d.info = mOpDMULTU, mInfoNeedRS|mInfoNeedRT
		case 0x1E:
			d.op, d.info = mOpDDIV, mInfoNeedRS|mInfoNeedRT
		case 0x1F:
			d.op, d.info = mOpDDIVU, mInfoNeedRS|mInfoNeedRT
		case 0x20:
			d.op, d.info, d.destReg = mOpADD, mInfoNeedRS|mInfoNeedRT, rd
		case 0x21:
			d.op, d.info, d.destReg = mOpADDU, mInfoNeedRS|mInfoNeedRT, rd
		case 0x22:
			d.op, d.info, d.destReg = mOpSUB, mInfoNeedRS|mInfoNeedRT, rd
		case 0x23:
			d.op, d.info, d.destReg = mOpSUBU, mInfoNeedRS|mInfoNeedRT, rd
		case 0x24:
			d.op, d.info, d.destReg = mOpAND, mInfoNeedRS|mInfoNeedRT, rd
		case 0x25:
			d.op, d.info, d.destReg = mOpOR, mInfoNeedRS|mInfoNeedRT, rd
		case 0x26:
			d.op, d.info, d.destReg = mOpXOR, mInfoNeedRS|mInfoNeedRT, rd
		case 0x27:
			d.op, d.info, d.destReg = mOpNOR, mInfoNeedRS|mInfoNeedRT, rd
		case 0x2A:
			d.op, d.info, d.destReg = mOpSLT, mInfoNeedRS|mInfoNeedRT, rd
		case 0x2B:
			d.op, d.info, d.destReg = mOpSLTU, mInfoNeedRS|mInfoNeedRT, rd
		case 0x2C:
			d.op, d.info, d.destReg = mOpDADD, mInfoNeedRS|mInfoNeedRT, rd
		case 0x2D:
			d.op, d.info, d.destReg = mOpDADDU, mInfoNeedRS|mInfoNeedRT, rd
		case 0x2E:
			d.op, d.info, d.destReg = mOpDSUB, mInfoNeedRS|mInfoNeedRT, rd
		case 0x2F:
			d.op, d.info, d.destReg = mOpDSUBU, mInfoNeedRS|mInfoNeedRT, rd
		case 0x38:
			d.op, d.info, d.destReg = mOpDSLL, mInfoNeedRT, rd
		case 0x3A:
			d.op, d.info, d.destReg = mOpDSRL, mInfoNeedRT, rd
		case 0x3B:
			d.op, d.info, d.destReg = mOpDSRA, mInfoNeedRT, rd
		case 0x3C:
			d.op, d.info, d.destReg = mOpDSLL32, mInfoNeedRT, rd
		case 0x3E:
			d.op, d.info, d.destReg = mOpDSRL32, mInfoNeedRT, rd
		case 0x3F:
			d.op, d.info, d.destReg = mOpDSRA32, mInfoNeedRT, rd
		}
	case 0x01: // REGIMM
		switch rt {
		case 0x00:
			d.op, d.info = mOpBLTZ, mInfoBranch|mInfoNeedRS
		case 0x01:
			d.op, d.info = mOpBGEZ, mInfoBranch|mInfoNeedRS
		case 0x10:
			d.op, d.info = mOpBLTZAL, mInfoBranch|mInfoNeedRS
		case 0x11:
			d.op, d.info = mOpBGEZAL, mInfoBranch|mInfoNeedRS
		}
	case 0x02:
		d.op, d.info = mOpJ, mInfoBranch
	case 0x03:
		d.op, d.info = mOpJAL, mInfoBranch
	case 0x04:
		d.op, d.info = mOpBEQ, mInfoBranch|mInfoNeedRS|mInfoNeedRT
	case 0x05:
		d.op, d.info = mOpBNE, mInfoBranch|mInfoNeedRS|mInfoNeedRT
	case 0x06:
		d.op, d.info = mOpBLEZ, mInfoBranch|mInfoNeedRS
	case 0x07:
		d.op, d.info = mOpBGTZ, mInfoBranch|mInfoNeedRS
	case 0x08:
		d.op, d.info, d.destReg = mOpADDI, mInfoNeedRS, rt
	case 0x09:
		d.op, d.info, d.destReg = mOpADDIU, mInfoNeedRS, rt
	case 0x0A:
		d.op, d.info, d.destReg = mOpSLTI, mInfoNeedRS, rt
	case 0x0B:
		d.op, d.info, d.destReg = mOpSLTIU, mInfoNeedRS, rt
	case 0x0C:
		d.op, d.info, d.destReg = mOpANDI, mInfoNeedRS, rt
	case 0x0D:
		d.op, d.info, d.destReg = mOpORI, mInfoNeedRS, rt
	case 0x0E:
		d.op, d.info, d.destReg = mOpXORI, mInfoNeedRS, rt
	case 0x0F:
		d.op, d.destReg = mOpLUI, rt
	case 0x10: // COP0
		switch rs {
		case 0x00:
			d.op, d.info, d.destReg = mOpMFC0, mInfoCop0, rt
		case 0x01:
			d.op, d.info, d.destReg = mOpDMFC0, mInfoCop0, rt
		case 0x04:
			d.op, d.info = mOpMTC0, mInfoCop0|mInfoNeedRT
		case 0x05:
			d.op, d.info = mOpDMTC0, mInfoCop0|mInfoNeedRT
		case 0x10:
			switch funct {
			case 0x02:
				d.op = mOpTLBWI
			case 0x06:
				d.op = mOpTLBWR
			case 0x01:
				d.op = mOpTLBR
			case 0x08:
				d.op = mOpTLBP
			case 0x18:
				d.op = mOpERET
			}
		}
	case 0x11: // COP1
		switch rs {
		case 0x00:
			d.op, d.destReg = mOpMFC1, rt
		case 0x02:
			d.op, d.destReg = mOpCFC1, rt
		case 0x04:
			d.op, d.info = mOpMTC1, mInfoNeedRT
		case 0x06:
			d.op, d.info = mOpCTC1, mInfoNeedRT
		case 0x08: // BC1: rt bit0 selects true/false, bit1 selects likely
			info := mInfoBranch
			if rt&0x2 != 0 {
				info |= mInfoLikely
			}
			d.op, d.info = mOpBC1, info
		default:
			d.op = mOpFPUCompute
		}
	case 0x14:
		d.op, d.info = mOpBEQL, mInfoBranch|mInfoLikely|mInfoNeedRS|mInfoNeedRT
	case 0x15:
		d.op, d.info = mOpBNEL, mInfoBranch|mInfoLikely|mInfoNeedRS|mInfoNeedRT
	case 0x16:
		d.op, d.info = mOpBLEZL, mInfoBranch|mInfoLikely|mInfoNeedRS
	case 0x17:
		d.op, d.info = mOpBGTZL, mInfoBranch|mInfoLikely|mInfoNeedRS
	case 0x18:
		d.op, d.info, d.destReg = mOpDADDI, mInfoNeedRS, rt
	case 0x19:
		d.op, d.info, d.destReg = mOpDADDIU, mInfoNeedRS, rt
	case 0x20:
		d.op, d.info, d.destReg = mOpLB, mInfoNeedRS|mInfoLoad, rt
	case 0x21:
		d.op, d.info, d.destReg = mOpLH, mInfoNeedRS|mInfoLoad, rt
	case 0x23:
		d.op, d.info, d.destReg = mOpLW, mInfoNeedRS|mInfoLoad, rt
	case 0x24:
		d.op, d.info, d.destReg = mOpLBU, mInfoNeedRS|mInfoLoad, rt
	case 0x25:
		d.op, d.info, d.destReg = mOpLHU, mInfoNeedRS|mInfoLoad, rt
	case 0x27:
		d.op, d.info, d.destReg = mOpLWU, mInfoNeedRS|mInfoLoad, rt
	case 0x31:
		d.op, d.info, d.destReg = mOpLWC1, mInfoNeedRS|mInfoLoad, rt
	case 0x37:
		d.op, d.info, d.destReg = mOpLD, mInfoNeedRS|mInfoLoad, rt
	case 0x28:
		d.op, d.info = mOpSB, mInfoNeedRS|mInfoNeedRT|mInfoStore
	case 0x29:
		d.op, d.info = mOpSH, mInfoNeedRS|mInfoNeedRT|mInfoStore
	case 0x2B:
		d.op, d.info = mOpSW, mInfoNeedRS|mInfoNeedRT|mInfoStore
	case 0x39:
		d.op, d.info = mOpSWC1, mInfoNeedRS|mInfoNeedRT|mInfoStore
	case 0x3F:
		d.op, d.info = mOpSD, mInfoNeedRS|mInfoNeedRT|mInfoStore
	case 0x2F:
		d.op = mOpCACHE
	default:
		d.op = mOpInvalid
	}

	if word == 0 {
		d.op = mOpNOP
	}

	switch d.op {
	case mOpJAL, mOpBLTZAL, mOpBGEZAL:
		d.destReg = 31
	}

	return d
}
