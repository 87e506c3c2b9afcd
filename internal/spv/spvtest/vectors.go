// Package spvtest holds raw mainnet vectors shared by the SPV package tests.
package spvtest

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// GenesisHeader is the mainnet genesis block header.
	GenesisHeader = "01000000" +
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a" +
		"29ab5f49" + "ffff001d" + "1dac2b7c"
	GenesisDigest = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

	// Block1Header is the header of mainnet block 1.
	Block1Header = "01000000" +
		"6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000" +
		"982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e" +
		"61bc6649" + "ffff001d" + "01e36299"
	Block1Digest = "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048"

	// GenesisCoinbase is the only transaction of the genesis block. Its txid
	// is the genesis merkle root.
	GenesisCoinbase = "01000000" + "01" +
		"0000000000000000000000000000000000000000000000000000000000000000" + "ffffffff" +
		"4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73" +
		"ffffffff" + "01" + "00f2052a01000000" +
		"434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac" +
		"00000000"
	GenesisCoinbaseTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

	// SegwitTx spends one P2WSH-style input into a P2WSH output and an
	// OP_RETURN output.
	SegwitTx = "01000000" + "0001" + "01" +
		"1746bd867400f3494b8f44c24b83e1aa58c4f0ff25b4a61cffeffd4bc0f9ba30" + "00000000" + "00" + "ffffffff" +
		"02" +
		"4897070000000000" + "220020a4333e5612ab1a1043b25755c89b16d55184a42f81799e623e6bc39db8539c18" +
		"0000000000000000" + "166a14edb1b5c2f39af0fec151732585b1049b07895211" +
		"02" +
		"4730440220276e0ec78028582054d86614c65bc4bf85ff5710b9d3a248ca28dd311eb2fa6802202ec950dd2a8c9435ff2d400cc45d7a4854ae085f49e05cc3f503834546d410de01" +
		"2103732783eef3af7e04d3af444430a629b16a9261e4025f52bf4d6d026299c37c74" +
		"00000000"
	SegwitTxID        = "d60033c5cf5c199208a9c656a29967810c4e428c22efb492fdd816e6a0a1e548"
	SegwitWitnessTxID = "07d180152232198cf601a5d10c98c1e09c7f982437e66d9db2b1830708b3da72"

	// SegwitTxScriptLenOffset is where the first input's script length sits
	// in SegwitTx.
	SegwitTxScriptLenOffset = 43
)

// Bytes decodes a hex vector and panics on malformed input.
func Bytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Hash parses a display-order hash and panics on malformed input.
func Hash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return *h
}

// WithByte returns a copy of the decoded vector with one byte replaced.
func WithByte(s string, off int, b byte) []byte {
	raw := Bytes(s)
	raw[off] = b
	return raw
}
