package codec

// CRC-32/AIXM (polynomial 0x814141AB, init 0, no input/output reflection, no
// final XOR) over key||value, per spec.md §3/§6. hash/crc32.MakeTable only
// expresses reflected polynomials (IEEE, Castagnoli, Koopman), so AIXM needs
// its own table-driven, most-significant-bit-first implementation; no
// alternate-polynomial CRC library appears anywhere in the example pack.
const aixmPoly uint32 = 0x814141AB

var aixmTable [256]uint32

func init() {
	for i := range aixmTable {
		crc := uint32(i) << 24
		for range 8 {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ aixmPoly
			} else {
				crc <<= 1
			}
		}
		aixmTable[i] = crc
	}
}

// crc32AIXM computes the CRC-32/AIXM digest of data.
func crc32AIXM(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = aixmTable[byte(crc>>24)^b] ^ (crc << 8)
	}
	return crc
}
