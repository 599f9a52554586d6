package od4

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message identifiers from the OpenDLV standard message set.
const (
	AngularVelocityReadingID int32 = 1044
	GroundSteeringRequestID  int32 = 1090
)

// AngularVelocityReading rad/s around each vehicle axis.
type AngularVelocityReading struct {
	X, Y, Z float32
}

// GroundSteeringRequest steering angle requested for the front wheels.
type GroundSteeringRequest struct {
	GroundSteering float32
}

// Marshal encodes the payload.
func (r AngularVelocityReading) Marshal() []byte {
	var b []byte
	b = appendFloat(b, 1, r.X)
	b = appendFloat(b, 2, r.Y)
	return appendFloat(b, 3, r.Z)
}

// Marshal encodes the payload.
func (r GroundSteeringRequest) Marshal() []byte {
	return appendFloat(nil, 1, r.GroundSteering)
}

// DecodeAngularVelocity extracts the reading from an envelope.
func DecodeAngularVelocity(e Envelope) (AngularVelocityReading, error) {
	if e.DataType != AngularVelocityReadingID {
		return AngularVelocityReading{}, fmt.Errorf("%w: %d, want %d", ErrUnknownMessage, e.DataType, AngularVelocityReadingID)
	}
	var r AngularVelocityReading
	err := decodeFloats(e.SerializedData, map[protowire.Number]*float32{1: &r.X, 2: &r.Y, 3: &r.Z})
	if err != nil {
		return AngularVelocityReading{}, fmt.Errorf("decode angular velocity: %w", err)
	}
	return r, nil
}

// DecodeGroundSteering extracts the request from an envelope.
func DecodeGroundSteering(e Envelope) (GroundSteeringRequest, error) {
	if e.DataType != GroundSteeringRequestID {
		return GroundSteeringRequest{}, fmt.Errorf("%w: %d, want %d", ErrUnknownMessage, e.DataType, GroundSteeringRequestID)
	}
	var r GroundSteeringRequest
	if err := decodeFloats(e.SerializedData, map[protowire.Number]*float32{1: &r.GroundSteering}); err != nil {
		return GroundSteeringRequest{}, fmt.Errorf("decode ground steering: %w", err)
	}
	return r, nil
}

// Registrar accepts handlers per message type.
type Registrar interface {
	OnMessage(dataType int32, h Handler)
}

// OnAngularVelocity registers fn for decoded angular velocity readings.
func OnAngularVelocity(r Registrar, fn func(e Envelope, reading AngularVelocityReading)) {
	r.OnMessage(AngularVelocityReadingID, func(e Envelope) error {
		reading, err := DecodeAngularVelocity(e)
		if err != nil {
			return err
		}
		fn(e, reading)
		return nil
	})
}

// OnGroundSteering registers fn for decoded ground steering requests.
func OnGroundSteering(r Registrar, fn func(e Envelope, req GroundSteeringRequest)) {
	r.OnMessage(GroundSteeringRequestID, func(e Envelope) error {
		req, err := DecodeGroundSteering(e)
		if err != nil {
			return err
		}
		fn(e, req)
		return nil
	})
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func decodeFloats(b []byte, fields map[protowire.Number]*float32) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		dst, ok := fields[num]
		if !ok || typ != protowire.Fixed32Type {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, m := protowire.ConsumeFixed32(b)
		*dst = math.Float32frombits(v)
		return m, nil
	})
}
