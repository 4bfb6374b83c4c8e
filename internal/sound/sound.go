// Package sound backs the Audio capability's background-track operations
// with OGG Vorbis playback. Sound effects stay with the external audio
// shell; only the music path is hosted here so headless servers can still
// run with everything else nulled.
package sound

import (
	"bytes"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"

	"arena3/internal/host"
)

// Output implements host.Audio: background music plays through the
// speaker, every effect call degrades to the embedded null sink.
//
// Graceful fallback throughout: a missing or undecodable track logs a
// warning and leaves the simulation running in silence.
type Output struct {
	host.NullAudio

	mu sync.Mutex

	fs      host.FileSystem
	volume  float64
	enabled bool

	speakerReady bool
	sampleRate   beep.SampleRate

	current beep.StreamSeekCloser
}

// NewOutput returns a music-capable audio sink reading tracks through
// the file capability.
func NewOutput(fs host.FileSystem, volume float64, enabled bool) *Output {
	return &Output{fs: fs, volume: volume, enabled: enabled}
}

// StartBackgroundTrack decodes and loops the named OGG file.
func (o *Output) StartBackgroundTrack(intro, loop string) {
	if !o.enabled {
		return
	}
	name := loop
	if name == "" {
		name = intro
	}
	if name == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	data := o.fs.Load(name)
	if data == nil {
		log.Printf("background track not found: %s", name)
		return
	}
	streamer, format, err := vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		log.Printf("background track undecodable: %s: %v", name, err)
		return
	}

	if !o.speakerReady {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			log.Printf("speaker init failed: %v", err)
			streamer.Close()
			return
		}
		o.speakerReady = true
		o.sampleRate = format.SampleRate
	}

	speaker.Clear()
	if o.current != nil {
		o.current.Close()
	}
	o.current = streamer

	var play beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != o.sampleRate {
		play = beep.Resample(4, format.SampleRate, o.sampleRate, play)
	}
	speaker.Play(&effects.Volume{
		Streamer: play,
		Base:     2,
		Volume:   volumeToDecade(o.volume),
		Silent:   o.volume <= 0,
	})
	log.Printf("background track: %s", name)
}

// StopBackgroundTrack silences the music.
func (o *Output) StopBackgroundTrack() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.speakerReady {
		return
	}
	speaker.Clear()
	if o.current != nil {
		o.current.Close()
		o.current = nil
	}
}

// volumeToDecade maps a 0..1 master volume onto the exponential scale the
// volume effect expects (0 = unity gain, negative = quieter).
func volumeToDecade(v float64) float64 {
	if v >= 1 {
		return 0
	}
	if v <= 0 {
		return -10
	}
	// -4 at the bottom of the usable range sounds near-silent
	return (v - 1) * 4
}
