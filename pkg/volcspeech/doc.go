// Package volcspeech implements the binary WebSocket protocol used to
// drive the Volcengine streaming speech service: frame encoding and
// decoding, the multi-phase synthesis session handshake, and the
// one-shot recognition exchange.
//
// # Authentication
//
// Every connection sends four custom headers before the protocol
// handshake:
//
//	X-Api-App-Key:     application id
//	X-Api-Access-Key:  access token
//	X-Api-Resource-Id: resource id (path-specific, legacy fallback)
//	X-Api-Connect-Id:  fresh uuid per connection
//
// Credentials are injected through New; the package never reads
// configuration files or the environment.
//
// # Synthesis
//
//	client := volcspeech.New(appID, token,
//	    volcspeech.WithTTSResource("seed-tts-1.0"),
//	    volcspeech.WithVoice("zh_female_tianmeixiaoyuan_moon_bigtts"))
//	err := client.SynthesizeStream(ctx, &volcspeech.SynthesizeRequest{
//	    Text: text,
//	}, sink) // sink receives audio chunks as they arrive
//
// The session handshake is strictly sequential: StartConnection(1) →
// ConnectionStarted(50) → StartSession(100) → SessionStarted(150) →
// TaskRequest(200) per text chunk → FinishSession(102) → audio until
// SessionFinished(152) → FinishConnection(2) → ConnectionFinished(52,
// best-effort).
//
// # Recognition
//
//	result, err := client.Recognize(ctx, &volcspeech.RecognizeRequest{
//	    Audio:  audioBytes,
//	    Format: "webm",
//	    Codec:  "opus",
//	})
//
// The exchange sends one configuration frame and one final audio
// frame, then drains responses until a close frame or the deadline.
package volcspeech
