package volcspeech

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRecognizeExchange(t *testing.T) {
	conn := &fakeConn{script: []scriptMsg{
		serverSimple(`{"result":{"text":"hello"}}`),
		serverSimple(`{"result":{"text":"hello world"}}`),
		normalClose(),
	}}

	client := New("app", "token")
	result, err := client.recognizeOn(conn, &RecognizeRequest{
		Audio:  []byte{0x01, 0x02},
		Format: "webm",
		Codec:  "opus",
	})
	if err != nil {
		t.Fatalf("recognizeOn: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("text = %q; want %q (last result wins)", result.Text, "hello world")
	}

	if len(conn.written) != 2 {
		t.Fatalf("wrote %d frames; want config + audio", len(conn.written))
	}

	// Config frame: JSON full-client header, then the audio description.
	config := conn.written[0]
	if !bytes.Equal(config[:4], []byte{0x11, 0x10, 0x10, 0x00}) {
		t.Errorf("config header = % x; want 11 10 10 00", config[:4])
	}
	var payload asrConfigPayload
	if err := json.Unmarshal(config[8:], &payload); err != nil {
		t.Fatalf("unmarshal config payload: %v", err)
	}
	if payload.Audio.Format != "webm" || payload.Audio.Codec != "opus" {
		t.Errorf("audio = %s/%s; want webm/opus", payload.Audio.Format, payload.Audio.Codec)
	}
	if payload.Audio.Rate != 16000 || payload.Audio.Bits != 16 || payload.Audio.Channel != 1 {
		t.Errorf("audio defaults = %d/%d/%d; want 16000/16/1",
			payload.Audio.Rate, payload.Audio.Bits, payload.Audio.Channel)
	}
	if payload.Request.ModelName != "bigmodel" {
		t.Errorf("model = %q; want bigmodel", payload.Request.ModelName)
	}

	// Audio frame: last-audio flag set, raw serialization.
	audio := conn.written[1]
	if !bytes.Equal(audio[:4], []byte{0x11, 0x22, 0x00, 0x00}) {
		t.Errorf("audio header = % x; want 11 22 00 00", audio[:4])
	}
}

func TestRecognizeTextMessages(t *testing.T) {
	// Some deployments deliver results as text frames instead of binary.
	conn := &fakeConn{script: []scriptMsg{
		{msgType: websocket.TextMessage, data: []byte(`{"result":{"text":"text frame"}}`)},
		normalClose(),
	}}

	result, err := New("app", "token").recognizeOn(conn, &RecognizeRequest{
		Audio: []byte{0x01}, Format: "wav", Codec: "raw",
	})
	if err != nil {
		t.Fatalf("recognizeOn: %v", err)
	}
	if result.Text != "text frame" {
		t.Errorf("text = %q; want %q", result.Text, "text frame")
	}
}

func TestRecognizeEmptyResultKept(t *testing.T) {
	// An empty follow-up result never erases a captured transcript.
	conn := &fakeConn{script: []scriptMsg{
		serverSimple(`{"result":{"text":"kept"}}`),
		serverSimple(`{"result":{"text":""}}`),
		normalClose(),
	}}

	result, err := New("app", "token").recognizeOn(conn, &RecognizeRequest{
		Audio: []byte{0x01}, Format: "webm", Codec: "opus",
	})
	if err != nil {
		t.Fatalf("recognizeOn: %v", err)
	}
	if result.Text != "kept" {
		t.Errorf("text = %q; want %q", result.Text, "kept")
	}
}

func TestRecognizeErrorStatus(t *testing.T) {
	conn := &fakeConn{script: []scriptMsg{
		serverSimple(`{"code":45000002,"message":"audio format not supported"}`),
	}}

	_, err := New("app", "token").recognizeOn(conn, &RecognizeRequest{
		Audio: []byte{0x01}, Format: "webm", Codec: "opus",
	})
	e, ok := AsError(err)
	if !ok || e.Kind != KindRemote {
		t.Fatalf("err = %v; want remote error", err)
	}
	if e.Message != "audio format not supported" {
		t.Errorf("message = %q; want server text", e.Message)
	}
}

func TestRecognizeTimeoutReturnsPartial(t *testing.T) {
	// The script runs dry with the deadline set, simulating a server
	// that stops responding mid-exchange.
	conn := &fakeConn{script: []scriptMsg{
		serverSimple(`{"result":{"text":"partial transcript"}}`),
	}}

	result, err := New("app", "token").recognizeOn(conn, &RecognizeRequest{
		Audio:   []byte{0x01},
		Format:  "webm",
		Codec:   "opus",
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout must not be fatal: %v", err)
	}
	if result.Text != "partial transcript" {
		t.Errorf("text = %q; want partial transcript", result.Text)
	}
}

func TestRecognizeNoAudio(t *testing.T) {
	_, err := New("app", "token").Recognize(context.Background(), &RecognizeRequest{})
	if err == nil {
		t.Fatal("err = nil; want missing-audio error")
	}
}

func TestAudioFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		format  string
		codec   string
		wantErr bool
	}{
		{"clip.webm", "webm", "opus", false},
		{"recording", "webm", "opus", false},
		{"clip.ogg", "ogg", "opus", false},
		{"clip.mp4", "mp4", "aac", false},
		{"clip.m4a", "mp4", "aac", false},
		{"clip.MP3", "mp3", "raw", false},
		{"clip.wav", "wav", "raw", false},
		{"clip.pcm", "pcm", "raw", false},
		{"clip.flac", "", "", true},
	}
	for _, tc := range tests {
		format, codec, err := AudioFormatForPath(tc.path)
		if tc.wantErr {
			if err == nil {
				t.Errorf("AudioFormatForPath(%q): err = nil; want error", tc.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("AudioFormatForPath(%q): %v", tc.path, err)
			continue
		}
		if format != tc.format || codec != tc.codec {
			t.Errorf("AudioFormatForPath(%q) = %s/%s; want %s/%s",
				tc.path, format, codec, tc.format, tc.codec)
		}
	}
}
