package od4

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrShortPacket returned for datagrams shorter than their frame header claims.
	ErrShortPacket = errors.New("short od4 packet")

	// ErrUnknownMessage returned when an envelope does not carry the expected message.
	ErrUnknownMessage = errors.New("unexpected od4 message type")
)

// Frame header: 0x0D, 0xA4, then the payload length as 24-bit little endian.
const (
	headerSize  = 5
	headerByte0 = 0x0D
	headerByte1 = 0xA4
	maxPayload  = 1<<24 - 1
)

// Envelope field numbers.
const (
	fieldDataType        protowire.Number = 1
	fieldSerializedData  protowire.Number = 2
	fieldSent            protowire.Number = 3
	fieldReceived        protowire.Number = 4
	fieldSampleTimeStamp protowire.Number = 5
	fieldSenderStamp     protowire.Number = 6

	fieldSeconds      protowire.Number = 1
	fieldMicroseconds protowire.Number = 2
)

// Envelope wraps one serialized message on the OD4 bus.
type Envelope struct {
	DataType        int32
	SerializedData  []byte
	Sent            time.Time
	Received        time.Time
	SampleTimeStamp time.Time
	SenderStamp     uint32
}

// Marshal encodes the envelope including the frame header.
func (e Envelope) Marshal() ([]byte, error) {
	var body []byte
	body = protowire.AppendTag(body, fieldDataType, protowire.VarintType)
	body = protowire.AppendVarint(body, protowire.EncodeZigZag(int64(e.DataType)))
	body = protowire.AppendTag(body, fieldSerializedData, protowire.BytesType)
	body = protowire.AppendBytes(body, e.SerializedData)
	body = appendTimeStamp(body, fieldSent, e.Sent)
	body = appendTimeStamp(body, fieldReceived, e.Received)
	body = appendTimeStamp(body, fieldSampleTimeStamp, e.SampleTimeStamp)
	body = protowire.AppendTag(body, fieldSenderStamp, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(e.SenderStamp))

	if len(body) > maxPayload {
		return nil, fmt.Errorf("envelope of %d bytes does not fit a frame", len(body))
	}
	n := len(body)
	out := make([]byte, 0, headerSize+n)
	out = append(out, headerByte0, headerByte1, byte(n), byte(n>>8), byte(n>>16))
	return append(out, body...), nil
}

// UnmarshalEnvelope decodes one framed envelope. Unknown fields are skipped.
func UnmarshalEnvelope(packet []byte) (Envelope, error) {
	if len(packet) < headerSize {
		return Envelope{}, ErrShortPacket
	}
	if packet[0] != headerByte0 || packet[1] != headerByte1 {
		return Envelope{}, fmt.Errorf("bad frame header %#x %#x", packet[0], packet[1])
	}
	n := int(packet[2]) | int(packet[3])<<8 | int(packet[4])<<16
	if len(packet)-headerSize < n {
		return Envelope{}, fmt.Errorf("%w: header claims %d bytes, have %d", ErrShortPacket, n, len(packet)-headerSize)
	}

	var e Envelope
	err := walkFields(packet[headerSize:headerSize+n], func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldDataType && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			e.DataType = int32(protowire.DecodeZigZag(v))
			return m, nil
		case num == fieldSerializedData && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			e.SerializedData = append([]byte(nil), v...)
			return m, nil
		case (num == fieldSent || num == fieldReceived || num == fieldSampleTimeStamp) && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return m, nil
			}
			ts, err := parseTimeStamp(v)
			if err != nil {
				return 0, err
			}
			switch num {
			case fieldSent:
				e.Sent = ts
			case fieldReceived:
				e.Received = ts
			default:
				e.SampleTimeStamp = ts
			}
			return m, nil
		case num == fieldSenderStamp && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			e.SenderStamp = uint32(v)
			return m, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}

func appendTimeStamp(b []byte, num protowire.Number, t time.Time) []byte {
	var ts []byte
	if !t.IsZero() {
		us := t.UnixMicro()
		ts = protowire.AppendTag(ts, fieldSeconds, protowire.VarintType)
		ts = protowire.AppendVarint(ts, protowire.EncodeZigZag(us/1_000_000))
		ts = protowire.AppendTag(ts, fieldMicroseconds, protowire.VarintType)
		ts = protowire.AppendVarint(ts, protowire.EncodeZigZag(us%1_000_000))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, ts)
}

func parseTimeStamp(b []byte) (time.Time, error) {
	var sec, usec int64
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType || (num != fieldSeconds && num != fieldMicroseconds) {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, m := protowire.ConsumeVarint(b)
		if num == fieldSeconds {
			sec = protowire.DecodeZigZag(v)
		} else {
			usec = protowire.DecodeZigZag(v)
		}
		return m, nil
	})
	if err != nil {
		return time.Time{}, err
	}
	if sec == 0 && usec == 0 {
		return time.Time{}, nil
	}
	return time.UnixMicro(sec*1_000_000 + usec), nil
}

// walkFields calls fn for every field in b. fn consumes the value and
// returns the number of bytes read, or a negative protowire error code.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}
