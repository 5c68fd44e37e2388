package playback

import zlog "github.com/rs/zerolog/log"

// Output is the audio device the player drives.
type Output interface {
	Play(path string) error
	Pause() error
	Resume() error
	Stop() error
	SetVolume(volume float64) error
}

// NopOutput accepts every command and produces no sound.
type NopOutput struct{}

func (NopOutput) Play(path string) error {
	zlog.Debug().Msgf("output: play %s", path)
	return nil
}

func (NopOutput) Pause() error  { return nil }
func (NopOutput) Resume() error { return nil }
func (NopOutput) Stop() error   { return nil }

func (NopOutput) SetVolume(volume float64) error { return nil }
