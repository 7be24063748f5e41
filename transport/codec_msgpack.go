package transport

import "github.com/vmihailenco/msgpack/v5"

// MsgpackCodec encodes/decodes Frames as MessagePack, kept from
// transport_src/codec_msgpack.go unchanged; used by the wsdriver
// reference implementation when passed to wsdriver.New (the codec is
// fixed per Driver, not negotiated per client), per SPEC_FULL.md §11's
// domain-stack wiring.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Encode(frame *Frame) ([]byte, error) { return msgpack.Marshal(frame) }

func (c *MsgpackCodec) Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *MsgpackCodec) Name() string { return CodecNameMsgpack }
