package utils

import (
	"encoding/binary"
	"encoding/hex"
)

func BytesToHex(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

func HexToBytes(str string) ([]byte, error) {
	bytes, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// Int64ToBytes encodes i as 8 big-endian bytes.
func Int64ToBytes(i int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

// LengthPrefixed returns b preceded by its length, so variable sized fields concatenate unambiguously.
func LengthPrefixed(b []byte) []byte {
	data := Int64ToBytes(int64(len(b)))
	return append(data, b...)
}
