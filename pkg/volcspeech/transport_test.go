package volcspeech

import (
	"encoding/binary"
	"time"

	"github.com/gorilla/websocket"
)

// scriptMsg is one inbound message a fakeConn will hand to the session.
type scriptMsg struct {
	msgType int
	data    []byte
	err     error
}

// fakeConn is an in-memory Transport fed from a fixed script. Reads pop
// the script in order; once it is exhausted, reads report a timeout when
// a deadline is set and a normal close otherwise. Writes are recorded.
type fakeConn struct {
	script []scriptMsg
	pos    int

	written  [][]byte
	deadline time.Time
	closed   bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	if f.pos < len(f.script) {
		m := f.script[f.pos]
		f.pos++
		if m.err != nil {
			return 0, nil, m.err
		}
		return m.msgType, m.data, nil
	}
	if !f.deadline.IsZero() {
		return 0, nil, timeoutError{}
	}
	return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error {
	f.deadline = t
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// serverEvent builds a full-server frame carrying an event code, an
// optional id and a payload, the shape the remote sends during the
// synthesis handshake.
func serverEvent(event int32, id string, payload []byte) scriptMsg {
	data := []byte{0x11, 0x94, 0x10, 0x00}
	data = binary.BigEndian.AppendUint32(data, uint32(event))
	data = binary.BigEndian.AppendUint32(data, uint32(len(id)))
	data = append(data, id...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)
	return scriptMsg{msgType: websocket.BinaryMessage, data: data}
}

// serverAudioOnly builds an audio-only frame with no event field.
func serverAudioOnly(id string, audio []byte) scriptMsg {
	data := []byte{0x11, 0xb0, 0x00, 0x00}
	data = binary.BigEndian.AppendUint32(data, uint32(len(id)))
	data = append(data, id...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(audio)))
	data = append(data, audio...)
	return scriptMsg{msgType: websocket.BinaryMessage, data: data}
}

// serverError builds the remote error frame: event, 4-byte code, text.
func serverError(event int32, code uint32, text string) scriptMsg {
	data := []byte{0x11, 0xf4, 0x10, 0x00}
	data = binary.BigEndian.AppendUint32(data, uint32(event))
	data = binary.BigEndian.AppendUint32(data, code)
	data = append(data, text...)
	return scriptMsg{msgType: websocket.BinaryMessage, data: data}
}

// serverSimple builds a full-server frame in the sequenced layout used
// by the recognition path.
func serverSimple(payload string) scriptMsg {
	data := []byte{0x11, 0x91, 0x10, 0x00}
	data = binary.BigEndian.AppendUint32(data, 1)
	data = binary.BigEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)
	return scriptMsg{msgType: websocket.BinaryMessage, data: data}
}

func normalClose() scriptMsg {
	return scriptMsg{err: &websocket.CloseError{Code: websocket.CloseNormalClosure}}
}
