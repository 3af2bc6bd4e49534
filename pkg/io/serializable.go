package io

import "errors"

// Serializable defines the binary encoding/decoding interface. Errors are
// returned via BinReader/BinWriter Err field.
type Serializable interface {
	DecodeBinary(*BinReader)
	EncodeBinary(*BinWriter)
}

// ToByteArray serializes a to a byte slice.
func ToByteArray(a Serializable) ([]byte, error) {
	w := NewBufBinWriter()
	a.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// FromByteArray deserializes a from a byte slice. Unconsumed trailing
// bytes are an error.
func FromByteArray(a Serializable, data []byte) error {
	r := NewBinReaderFromBuf(data)
	a.DecodeBinary(r)
	if r.Err == nil && r.Len() != 0 {
		r.Err = errors.New("additional data after the end of the serialized item")
	}
	return r.Err
}
