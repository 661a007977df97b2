package volcspeech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	asrStreamPath = "/api/v3/sauc/bigmodel"

	defaultRecognizeTimeout = 15 * time.Second
)

// RecognizeRequest describes one recognition exchange: the entire
// audio buffer is sent up front, there is no chunked streaming on this
// path.
type RecognizeRequest struct {
	// Audio is the complete audio buffer (required).
	Audio []byte `json:"-" yaml:"-"`

	// Format and Codec describe the audio container (e.g. webm/opus).
	Format string `json:"format" yaml:"format"`
	Codec  string `json:"codec" yaml:"codec"`

	// SampleRate in Hz (default: 16000).
	SampleRate int `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`

	// Bits per sample (default: 16).
	Bits int `json:"bits,omitempty" yaml:"bits,omitempty"`

	// Channels (default: 1).
	Channels int `json:"channels,omitempty" yaml:"channels,omitempty"`

	// Timeout bounds the read loop (default: 15s). Elapsing is not an
	// error: the transcript captured so far is returned.
	Timeout time.Duration `json:"-" yaml:"-"`
}

// RecognizeResult is the outcome of a recognition exchange.
type RecognizeResult struct {
	// Text is the final transcript. It may be empty when the deadline
	// elapsed before any result arrived.
	Text string `json:"text"`
}

type asrConfigPayload struct {
	User  sessionUser `json:"user"`
	Audio struct {
		Format  string `json:"format"`
		Codec   string `json:"codec"`
		Rate    int    `json:"rate"`
		Bits    int    `json:"bits"`
		Channel int    `json:"channel"`
	} `json:"audio"`
	Request struct {
		ModelName      string `json:"model_name"`
		ShowUtterances bool   `json:"show_utterances"`
	} `json:"request"`
}

type asrResponse struct {
	Result *struct {
		Text string `json:"text"`
	} `json:"result"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Recognize sends the configuration frame and the full audio buffer,
// then drains inbound frames until a terminal condition: an
// error-status response (fatal), a close frame (done), or the deadline
// (done, with whatever transcript was captured). The last non-empty
// result wins; results do not accumulate.
func (c *Client) Recognize(ctx context.Context, req *RecognizeRequest) (*RecognizeResult, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("volcspeech: no audio to recognize")
	}

	conn, connectID, err := c.dial(ctx, asrStreamPath, c.asrResource())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	slog.Debug("asr exchange opened", "connect_id", connectID, "audio_bytes", len(req.Audio))

	return c.recognizeOn(conn, req)
}

// recognizeOn runs the exchange on an established transport.
func (c *Client) recognizeOn(conn Transport, req *RecognizeRequest) (*RecognizeResult, error) {
	config := asrConfigPayload{User: sessionUser{UID: c.config.userID}}
	config.Audio.Format = req.Format
	config.Audio.Codec = req.Codec
	config.Audio.Rate = orDefault(req.SampleRate, 16000)
	config.Audio.Bits = orDefault(req.Bits, 16)
	config.Audio.Channel = orDefault(req.Channels, 1)
	config.Request.ModelName = "bigmodel"
	config.Request.ShowUtterances = true

	configBytes, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal config payload: %w", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, encodeSimpleRequest(configBytes)); err != nil {
		return nil, newTransportError("send config: " + err.Error())
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, encodeAudioRequest(req.Audio, true)); err != nil {
		return nil, newTransportError("send audio: " + err.Error())
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultRecognizeTimeout
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, newTransportError("set read deadline: " + err.Error())
	}

	transcript := ""
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				break
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				slog.Warn("recognition timed out waiting for response", "transcript_len", len(transcript))
				break
			}
			return nil, newTransportError("read message: " + err.Error())
		}

		var text string
		switch msgType {
		case websocket.TextMessage:
			text = string(data)
		case websocket.BinaryMessage:
			decoded, ok, err := decodeSimpleResponse(data)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			text = decoded
		default:
			continue
		}

		var resp asrResponse
		if err := json.Unmarshal([]byte(text), &resp); err != nil {
			slog.Debug("unparsed recognition response", "payload", text)
			continue
		}
		if resp.Code != 0 {
			return nil, newRemoteError(resp.Message)
		}
		if resp.Result != nil && resp.Result.Text != "" {
			transcript = resp.Result.Text
		}
	}

	return &RecognizeResult{Text: transcript}, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// AudioFormatForPath maps an audio file extension to the (format,
// codec) pair the recognition service expects. An empty extension
// falls back to webm/opus, the capture format of the desktop shell.
func AudioFormatForPath(path string) (format, codec string, err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "webm", "":
		return "webm", "opus", nil
	case "ogg":
		return "ogg", "opus", nil
	case "mp4", "m4a":
		return "mp4", "aac", nil
	case "mp3":
		return "mp3", "raw", nil
	case "wav":
		return "wav", "raw", nil
	case "pcm":
		return "pcm", "raw", nil
	}
	return "", "", fmt.Errorf("unsupported audio extension: %s", ext)
}
