package stream

import "encoding/binary"

// FLV video tag constants for AVC payloads.
const (
	flvCodecAVC       = 7
	flvFrameKey       = 1
	avcSequenceHeader = 0
	avcNALU           = 1
)

var startCode = []byte{0, 0, 0, 1}

// parameterSets pulls the SPS and PPS out of an AVCDecoderConfigurationRecord.
// Only the last of each is kept.
func parameterSets(record []byte) (sps, pps []byte) {
	if len(record) < 7 {
		return nil, nil
	}
	off := 5
	n := int(record[off] & 0x1f)
	off++
	for range n {
		var ps []byte
		if ps, off = lengthPrefixed(record, off); ps == nil {
			return sps, nil
		}
		sps = ps
	}
	if off >= len(record) {
		return sps, nil
	}
	n = int(record[off])
	off++
	for range n {
		var ps []byte
		if ps, off = lengthPrefixed(record, off); ps == nil {
			break
		}
		pps = ps
	}
	return sps, pps
}

// lengthPrefixed reads a 16-bit length prefixed block at off.
func lengthPrefixed(b []byte, off int) ([]byte, int) {
	if off+2 > len(b) {
		return nil, off
	}
	n := int(binary.BigEndian.Uint16(b[off:]))
	off += 2
	if n == 0 || off+n > len(b) {
		return nil, off
	}
	return append([]byte(nil), b[off:off+n]...), off + n
}

// splitAVCC splits 4-byte length prefixed NAL units. A truncated unit
// ends the split.
func splitAVCC(data []byte) [][]byte {
	var nalus [][]byte
	for off := 0; off+4 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if n <= 0 || off+n > len(data) {
			break
		}
		nalus = append(nalus, data[off:off+n])
		off += n
	}
	return nalus
}

// annexB joins nalus with start codes, leading with the parameter sets on
// keyframes.
func annexB(nalus [][]byte, sps, pps []byte, key bool) []byte {
	size := 0
	for _, n := range nalus {
		size += len(startCode) + len(n)
	}
	withPS := key && sps != nil && pps != nil
	if withPS {
		size += 2*len(startCode) + len(sps) + len(pps)
	}
	out := make([]byte, 0, size)
	if withPS {
		out = append(append(out, startCode...), sps...)
		out = append(append(out, startCode...), pps...)
	}
	for _, n := range nalus {
		out = append(append(out, startCode...), n...)
	}
	return out
}
