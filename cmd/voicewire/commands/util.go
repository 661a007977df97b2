package commands

import (
	"github.com/reason-code/voicewire/pkg/cli"
	"github.com/reason-code/voicewire/pkg/sessionlog"
	"github.com/reason-code/voicewire/pkg/volcspeech"
)

// createClient builds a speech client from a credential context.
func createClient(ctx *cli.Context) *volcspeech.Client {
	opts := []volcspeech.Option{
		volcspeech.WithTTSResource(ctx.TTSResourceID),
		volcspeech.WithASRResource(ctx.ASRResourceID),
		volcspeech.WithLegacyResource(ctx.ResourceID),
		volcspeech.WithVoice(ctx.DefaultVoice),
	}
	if ctx.Endpoint != "" {
		opts = append(opts, volcspeech.WithEndpoint(ctx.Endpoint))
	}
	return volcspeech.New(ctx.AppID, ctx.AccessToken, opts...)
}

// openTranscript opens the session transcript log under the app's log
// directory.
func openTranscript() (*sessionlog.Log, error) {
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return nil, err
	}
	return sessionlog.Open(paths.TranscriptFile()), nil
}
