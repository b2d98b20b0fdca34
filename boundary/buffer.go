package boundary

import "perpsign/shared"

// Buffer is a single-owner byte handle handed to the caller. The owner must
// call Release exactly once; afterwards the contents are zeroed and Bytes
// returns nil. Releasing twice is a no-op.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data []byte
}

func newBuffer(s string) *Buffer {
	return &Buffer{data: []byte(s)}
}

// Bytes returns the contents without transferring ownership.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len is the byte length of the contents.
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b == nil || b.data == nil
}

// Release zeroes and drops the contents.
func (b *Buffer) Release() {
	if b == nil || b.data == nil {
		return
	}
	clear(b.data)
	b.data = nil
}

// DerivePrivateKeyBuffer is DerivePrivateKey returning an owned buffer, so the
// key can be wiped once the caller is done with it.
func DerivePrivateKeyBuffer(ethSignatureHex string) (*Buffer, error) {
	s, err := DerivePrivateKey(ethSignatureHex)
	if err != nil {
		return nil, err
	}
	return newBuffer(s), nil
}

// HashOrderBuffer is HashOrderRequest returning an owned buffer.
func HashOrderBuffer(req shared.HashOrderRequest) (*Buffer, error) {
	s, err := HashOrderRequest(req)
	if err != nil {
		return nil, err
	}
	return newBuffer(s), nil
}

// SignBuffer returns r, s and v as three owned buffers.
func SignBuffer(messageHex, privateKeyHex string) (r, s, v *Buffer, err error) {
	sig, err := Sign(messageHex, privateKeyHex)
	if err != nil {
		return nil, nil, nil, err
	}
	return newBuffer(sig.R), newBuffer(sig.S), newBuffer(sig.V), nil
}
