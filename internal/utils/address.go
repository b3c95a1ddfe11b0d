package utils

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"
)

// DeriveAddress computes a stable address for an in-process account:
// the last 20 bytes of BLAKE3(kind || 0x00 || name).
func DeriveAddress(kind, name string) common.Address {
	h := blake3.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(name))

	var digest [32]byte
	h.Digest().Read(digest[:])
	return common.BytesToAddress(digest[12:])
}
