package volcspeech

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type protocolVersion byte
type messageType byte
type messageTypeFlags byte
type serializationType byte
type compressionType byte

const (
	protocolVersionV1 protocolVersion = 0b0001

	// Header length in 4-byte words. Both frame families use a bare
	// 4-byte header.
	headerSizeWords byte = 0b0001

	// Message Types
	msgTypeFullClient      messageType = 0b0001
	msgTypeAudioOnlyClient messageType = 0b0010
	msgTypeFullServer      messageType = 0b1001
	msgTypeAudioOnlyServer messageType = 0b1011
	msgTypeError           messageType = 0b1111

	// Message Type Specific Flags
	msgFlagNone      messageTypeFlags = 0b0000
	msgFlagLastAudio messageTypeFlags = 0b0010
	msgFlagWithEvent messageTypeFlags = 0b0100

	// Serialization Types
	serializationRaw  serializationType = 0b0000
	serializationJSON serializationType = 0b0001

	// Compression Types
	compressionNone compressionType = 0b0000
)

// Protocol event codes for the bidirectional session protocol.
const (
	EventStartConnection    int32 = 1
	EventFinishConnection   int32 = 2
	EventConnectionStarted  int32 = 50
	EventConnectionFailed   int32 = 51
	EventConnectionFinished int32 = 52
	EventStartSession       int32 = 100
	EventFinishSession      int32 = 102
	EventSessionStarted     int32 = 150
	EventSessionFinished    int32 = 152
	EventTaskRequest        int32 = 200
	EventSentenceStart      int32 = 350
	EventSentenceEnd        int32 = 351
	EventTTSResponse        int32 = 352
)

// Message is one decoded wire frame. Both frame families (the
// non-eventful frames of the recognition path and the eventful frames
// of the session protocol) decode into this shape; HasEvent tags the
// family.
//
// Wire format:
//   - Header (header_words * 4 bytes, currently always 4):
//   - (4bits) version + (4bits) header_words
//   - (4bits) message_type + (4bits) flags
//   - (4bits) serialization + (4bits) compression
//   - (8bits) reserved
//   - [optional] event (4 bytes, big-endian, when flag 0b0100 set)
//   - [optional] session id (4 bytes length + data)
//   - payload (4 bytes length + data)
type Message struct {
	Type          messageType
	Flags         messageTypeFlags
	Serialization serializationType

	// Event is the protocol event code; valid only when HasEvent is set.
	Event    int32
	HasEvent bool

	// SessionID is the optional length-prefixed id field of session
	// frames. Connection-level frames leave it empty.
	SessionID string

	Payload []byte
}

// IsError reports whether the frame carries the remote error message type.
func (m *Message) IsError() bool {
	return m.Type == msgTypeError
}

// IsAudioOnly reports whether the frame is a raw audio frame.
func (m *Message) IsAudioOnly() bool {
	return m.Type == msgTypeAudioOnlyServer || m.Type == msgTypeAudioOnlyClient
}

// encodeSimpleRequest builds the fixed 8-byte-header configuration
// frame of the recognition path: JSON serialization, no compression,
// payload length-prefixed with 4 big-endian bytes.
func encodeSimpleRequest(payload []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(payload)))
	buf.WriteByte(byte(protocolVersionV1)<<4 | headerSizeWords)
	buf.WriteByte(byte(msgTypeFullClient)<<4 | byte(msgFlagNone))
	buf.WriteByte(byte(serializationJSON)<<4 | byte(compressionNone))
	buf.WriteByte(0x00) // reserved
	binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// encodeAudioRequest builds an audio-only frame. The payload is raw
// audio bytes; flag bit 1 marks the final chunk.
func encodeAudioRequest(audio []byte, last bool) []byte {
	flags := msgFlagNone
	if last {
		flags = msgFlagLastAudio
	}
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(audio)))
	buf.WriteByte(byte(protocolVersionV1)<<4 | headerSizeWords)
	buf.WriteByte(byte(msgTypeAudioOnlyClient)<<4 | byte(flags))
	buf.WriteByte(byte(serializationRaw)<<4 | byte(compressionNone))
	buf.WriteByte(0x00)
	binary.Write(buf, binary.BigEndian, uint32(len(audio)))
	buf.Write(audio)
	return buf.Bytes()
}

// encodeEventFrame builds a full-client session frame carrying an
// event code, an optional session id and a JSON payload.
func encodeEventFrame(event int32, sessionID string, payload []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 16+len(sessionID)+len(payload)))
	buf.WriteByte(byte(protocolVersionV1)<<4 | headerSizeWords)
	buf.WriteByte(byte(msgTypeFullClient)<<4 | byte(msgFlagWithEvent))
	buf.WriteByte(byte(serializationJSON)<<4 | byte(compressionNone))
	buf.WriteByte(0x00)
	binary.Write(buf, binary.BigEndian, event)
	if sessionID != "" {
		binary.Write(buf, binary.BigEndian, uint32(len(sessionID)))
		buf.WriteString(sessionID)
	}
	binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// decodeSimpleResponse decodes a recognition-path server frame.
//
// ok=false means the buffer does not yet hold a complete frame and the
// caller should wait for more bytes; it is never an error. Unsupported
// compression or serialization values and the error message type are
// hard failures.
func decodeSimpleResponse(data []byte) (text string, ok bool, err error) {
	if len(data) < 12 {
		return "", false, nil
	}

	headerLen := int(data[0]&0x0f) * 4
	if len(data) < headerLen+8 {
		return "", false, nil
	}

	msgType := messageType(data[1] >> 4)
	serialization := serializationType(data[2] >> 4)
	compression := compressionType(data[2] & 0x0f)

	if compression != compressionNone {
		return "", false, newDecodeError(fmt.Sprintf("unsupported compression 0x%x", byte(compression)))
	}
	if serialization != serializationRaw && serialization != serializationJSON {
		return "", false, newDecodeError(fmt.Sprintf("unsupported serialization 0x%x", byte(serialization)))
	}

	// Server responses carry a 4-byte sequence field between the
	// header and the payload length.
	sizeOffset := headerLen + 4
	if len(data) < sizeOffset+4 {
		return "", false, nil
	}
	payloadLen := int(binary.BigEndian.Uint32(data[sizeOffset : sizeOffset+4]))

	payloadOffset := headerLen + 8
	if len(data) < payloadOffset+payloadLen {
		return "", false, nil
	}
	payload := string(data[payloadOffset : payloadOffset+payloadLen])

	if msgType == msgTypeError {
		return "", false, newRemoteError(payload)
	}
	return payload, true, nil
}

// decodeEventFrame decodes a session-protocol frame.
//
// A buffer shorter than its own declared header or fixed fields yields
// ErrIncompleteFrame so callers can distinguish "need more bytes" from
// a malformed frame. The trailing payload length is lenient: a length
// running past the buffer is capped at the buffer end, tolerating
// frames observed before full transport-level buffering.
func decodeEventFrame(data []byte) (*Message, error) {
	if len(data) < 4 {
		return nil, ErrIncompleteFrame
	}

	headerLen := int(data[0]&0x0f) * 4
	if headerLen > len(data) {
		return nil, ErrIncompleteFrame
	}

	msg := &Message{
		Type:          messageType(data[1] >> 4),
		Flags:         messageTypeFlags(data[1] & 0x0f),
		Serialization: serializationType(data[2] >> 4),
	}
	if compression := compressionType(data[2] & 0x0f); compression != compressionNone {
		return nil, newDecodeError(fmt.Sprintf("unsupported compression 0x%x", byte(compression)))
	}

	offset := headerLen

	if msg.Flags&msgFlagWithEvent != 0 {
		if offset+4 > len(data) {
			return nil, ErrIncompleteFrame
		}
		msg.Event = int32(binary.BigEndian.Uint32(data[offset : offset+4]))
		msg.HasEvent = true
		offset += 4
	}

	if msg.Type == msgTypeError {
		// Error frames carry a 4-byte error code followed by raw
		// error text; no session id or length prefix follows.
		if offset+4 > len(data) {
			return nil, ErrIncompleteFrame
		}
		msg.Payload = data[offset+4:]
		return msg, nil
	}

	// Optional length-prefixed id, present only if bytes remain.
	if offset+4 <= len(data) {
		idLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if idLen > 0 {
			if offset+idLen > len(data) {
				return nil, newDecodeError("declared id length exceeds frame")
			}
			msg.SessionID = string(data[offset : offset+idLen])
			offset += idLen
		}
	}

	if offset+4 <= len(data) {
		payloadLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if offset+payloadLen <= len(data) {
			msg.Payload = data[offset : offset+payloadLen]
		} else if offset < len(data) {
			msg.Payload = data[offset:]
		}
	}

	return msg, nil
}
