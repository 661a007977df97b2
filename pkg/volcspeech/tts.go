package volcspeech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	ttsBidirectionPath = "/api/v3/tts/bidirection"
	ttsNamespace       = "BidirectionalTTS"

	defaultTTSFormat     = "mp3"
	defaultTTSSampleRate = 24000

	// Pacing between successive task frames, so a long text does not
	// overrun the remote service's input buffer.
	defaultChunkDelay = 80 * time.Millisecond
)

// sessionPhase tracks where the synthesis handshake stands. Phases
// advance strictly in order; the phase decides whether a peer close is
// an error or normal termination.
type sessionPhase int

const (
	phaseIdle sessionPhase = iota
	phaseConnectionStarting
	phaseConnectionActive
	phaseSessionStarting
	phaseSessionActive
	phaseTaskSending
	phaseSessionFinishing
	phaseSessionClosed
	phaseConnectionFinishing
	phaseConnectionClosed
	phaseFailed
)

// SynthesizeRequest describes one synthesis session.
type SynthesizeRequest struct {
	// Text to synthesize (required). It is segmented into task chunks
	// before transmission.
	Text string `json:"text" yaml:"text"`

	// Voice overrides the client's default voice selector.
	Voice string `json:"voice,omitempty" yaml:"voice,omitempty"`

	// Format is the audio container (default: mp3).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// SampleRate in Hz (default: 24000).
	SampleRate int `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`

	// Chunking bounds; zero values use the session defaults.
	MaxChunkRunes int `json:"max_chunk_runes,omitempty" yaml:"max_chunk_runes,omitempty"`
	MinChunkRunes int `json:"min_chunk_runes,omitempty" yaml:"min_chunk_runes,omitempty"`

	// ChunkDelay is the pacing between task frames (default: 80ms).
	ChunkDelay time.Duration `json:"-" yaml:"-"`
}

// StreamSink receives the synthesis session's output. It decouples the
// session loop from any particular consumer: the CLI writes files, a
// UI forwards window events, tests collect in memory.
type StreamSink interface {
	// AudioChunk delivers one synthesized audio chunk, in arrival order.
	AudioChunk(chunk []byte)

	// Finished reports the total audio byte count after a successful
	// session.
	Finished(totalBytes int)

	// StreamError reports a fatal session failure.
	StreamError(message string)
}

type sessionUser struct {
	UID string `json:"uid"`
}

type sessionAudioParams struct {
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

type startSessionPayload struct {
	User      sessionUser `json:"user"`
	Event     int32       `json:"event"`
	Namespace string      `json:"namespace"`
	ReqParams struct {
		Speaker     string             `json:"speaker"`
		AudioParams sessionAudioParams `json:"audio_params"`
	} `json:"req_params"`
}

type taskRequestPayload struct {
	Event     int32  `json:"event"`
	Namespace string `json:"namespace"`
	ReqParams struct {
		Text string `json:"text"`
	} `json:"req_params"`
}

// SynthesizeStream runs one bidirectional synthesis session and feeds
// the resulting audio chunks into sink.
//
// The handshake is strictly sequential: no control frame is sent
// before its prerequisite event is observed. On any mid-session
// failure the closing handshake is still attempted before returning;
// its own failure is never escalated.
func (c *Client) SynthesizeStream(ctx context.Context, req *SynthesizeRequest, sink StreamSink) error {
	resourceID := c.ttsResource()
	if resourceID == "" {
		err := newTransportError("synthesis resource id not configured")
		sink.StreamError(err.Message)
		return err
	}

	chunks := SplitText(req.Text, req.MaxChunkRunes, req.MinChunkRunes)
	if len(chunks) == 0 {
		err := fmt.Errorf("volcspeech: no text to synthesize")
		sink.StreamError(err.Error())
		return err
	}

	conn, connectID, err := c.dial(ctx, ttsBidirectionPath, resourceID)
	if err != nil {
		sink.StreamError(err.Error())
		return err
	}
	defer conn.Close()
	slog.Debug("tts connection opened", "connect_id", connectID)

	return c.synthesizeOn(ctx, conn, req, chunks, sink)
}

// synthesizeOn runs the synthesis session on an established transport.
func (c *Client) synthesizeOn(ctx context.Context, conn Transport, req *SynthesizeRequest, chunks []string, sink StreamSink) error {
	s := &ttsSession{
		conn:      conn,
		client:    c,
		sessionID: uuid.New().String(),
		phase:     phaseIdle,
	}
	slog.Debug("tts session opened", "session_id", s.sessionID, "chunks", len(chunks))

	total, runErr := s.run(ctx, req, chunks, sink)

	// Best-effort close handshake, attempted even after a failure.
	s.finishConnection()

	if runErr != nil {
		s.phase = phaseFailed
		sink.StreamError(runErr.Error())
		return runErr
	}

	s.phase = phaseConnectionClosed
	sink.Finished(total)
	slog.Debug("tts session finished", "session_id", s.sessionID, "total_bytes", total)
	return nil
}

type ttsSession struct {
	conn      Transport
	client    *Client
	sessionID string
	phase     sessionPhase
}

func (s *ttsSession) run(ctx context.Context, req *SynthesizeRequest, chunks []string, sink StreamSink) (int, error) {
	s.phase = phaseConnectionStarting
	if err := s.sendEvent(EventStartConnection, "", []byte("{}")); err != nil {
		return 0, err
	}
	if err := s.awaitEvent(EventConnectionStarted); err != nil {
		return 0, err
	}
	s.phase = phaseConnectionActive

	voice := req.Voice
	if voice == "" {
		voice = s.client.config.voice
	}
	format := req.Format
	if format == "" {
		format = defaultTTSFormat
	}
	sampleRate := req.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultTTSSampleRate
	}

	start := startSessionPayload{
		User:      sessionUser{UID: s.client.config.userID},
		Event:     EventStartSession,
		Namespace: ttsNamespace,
	}
	start.ReqParams.Speaker = voice
	start.ReqParams.AudioParams = sessionAudioParams{Format: format, SampleRate: sampleRate}
	startBytes, err := json.Marshal(start)
	if err != nil {
		return 0, fmt.Errorf("marshal session payload: %w", err)
	}

	s.phase = phaseSessionStarting
	if err := s.sendEvent(EventStartSession, s.sessionID, startBytes); err != nil {
		return 0, err
	}
	if err := s.awaitEvent(EventSessionStarted); err != nil {
		return 0, err
	}
	s.phase = phaseSessionActive

	delay := req.ChunkDelay
	if delay <= 0 {
		delay = defaultChunkDelay
	}

	s.phase = phaseTaskSending
	for i, chunk := range chunks {
		task := taskRequestPayload{Event: EventTaskRequest, Namespace: ttsNamespace}
		task.ReqParams.Text = chunk
		taskBytes, err := json.Marshal(task)
		if err != nil {
			return 0, fmt.Errorf("marshal task payload: %w", err)
		}
		if err := s.sendEvent(EventTaskRequest, s.sessionID, taskBytes); err != nil {
			return 0, err
		}

		if i+1 < len(chunks) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, newTransportError("context canceled: " + ctx.Err().Error())
			}
		}
	}

	s.phase = phaseSessionFinishing
	if err := s.sendEvent(EventFinishSession, s.sessionID, []byte("{}")); err != nil {
		return 0, err
	}

	return s.collectAudio(sink)
}

// collectAudio drains inbound frames until the session-finished event
// or a clean close. Audio arrives either as TTSResponse event frames
// or as raw audio-only frames with no event field; the two forms are
// equivalent.
func (s *ttsSession) collectAudio(sink StreamSink) (int, error) {
	total := 0
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				s.phase = phaseSessionClosed
				return total, nil
			}
			return total, newTransportError("read message: " + err.Error())
		}

		switch msgType {
		case websocket.TextMessage:
			return total, newRemoteError("unexpected text message: " + string(data))
		case websocket.BinaryMessage:
		default:
			continue
		}

		frame, err := decodeEventFrame(data)
		if err != nil {
			if err == ErrIncompleteFrame {
				return total, newDecodeError("truncated frame")
			}
			return total, err
		}

		if frame.IsError() {
			return total, newRemoteError(string(frame.Payload))
		}

		if frame.HasEvent {
			switch frame.Event {
			case EventTTSResponse:
				if len(frame.Payload) > 0 {
					if total == 0 {
						slog.Debug("first audio chunk", "size", len(frame.Payload))
					}
					total += len(frame.Payload)
					sink.AudioChunk(frame.Payload)
				}
			case EventSentenceStart:
				slog.Debug("sentence start", "session_id", s.sessionID)
			case EventSentenceEnd:
				slog.Debug("sentence end", "session_id", s.sessionID)
			case EventSessionFinished:
				s.phase = phaseSessionClosed
				return total, nil
			default:
				if frame.Serialization == serializationJSON && len(frame.Payload) > 0 {
					slog.Debug("tts event", "event", frame.Event, "payload", string(frame.Payload))
				}
			}
			continue
		}

		if frame.IsAudioOnly() && len(frame.Payload) > 0 {
			if total == 0 {
				slog.Debug("first audio chunk", "size", len(frame.Payload))
			}
			total += len(frame.Payload)
			sink.AudioChunk(frame.Payload)
		}
	}
}

// finishConnection runs the terminal close handshake. Its failure is
// logged and discarded: the final acknowledgment is not guaranteed to
// arrive and a session that produced its audio is already complete.
func (s *ttsSession) finishConnection() {
	s.phase = phaseConnectionFinishing
	if err := s.sendEvent(EventFinishConnection, "", []byte("{}")); err != nil {
		slog.Debug("finish connection", "err", err)
		return
	}
	if err := s.awaitEvent(EventConnectionFinished); err != nil {
		slog.Debug("await connection finished", "err", err)
	}
}

func (s *ttsSession) sendEvent(event int32, sessionID string, payload []byte) error {
	frame := encodeEventFrame(event, sessionID, payload)
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return newTransportError(fmt.Sprintf("send event %d: %v", event, err))
	}
	return nil
}

// awaitEvent reads frames until the target event arrives. An error
// frame, a text message, or a close outside the terminal phase is
// fatal; a stream that ends without the event is a sequencing error.
func (s *ttsSession) awaitEvent(target int32) error {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				if s.phase >= phaseConnectionFinishing {
					return nil
				}
				return newSequenceError(fmt.Sprintf("connection closed before event %d", target))
			}
			return newTransportError("read message: " + err.Error())
		}

		switch msgType {
		case websocket.TextMessage:
			return newRemoteError("unexpected text message: " + string(data))
		case websocket.BinaryMessage:
		default:
			continue
		}

		frame, err := decodeEventFrame(data)
		if err != nil {
			if err == ErrIncompleteFrame {
				return newDecodeError("truncated frame")
			}
			return err
		}
		if frame.IsError() {
			return newRemoteError(string(frame.Payload))
		}
		if frame.HasEvent && frame.Event == target {
			return nil
		}
	}
}
