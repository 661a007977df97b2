package volcspeech

import (
	"time"

	"github.com/gorilla/websocket"
)

// Transport is one duplex socket carrying binary frames. A session
// owns its transport; nothing is shared across sessions.
//
// *websocket.Conn satisfies this interface directly. Tests substitute
// an in-memory implementation.
type Transport interface {
	// ReadMessage blocks until the next complete message arrives.
	ReadMessage() (messageType int, data []byte, err error)

	// WriteMessage writes a complete message.
	WriteMessage(messageType int, data []byte) error

	// SetReadDeadline bounds subsequent reads. The zero time clears
	// the deadline.
	SetReadDeadline(t time.Time) error

	Close() error
}

var _ Transport = (*websocket.Conn)(nil)

// isNormalClose reports whether err is a clean peer-initiated close.
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
