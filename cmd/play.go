package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/icco/tubular/internal/audio"
	"github.com/icco/tubular/internal/config"
	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/midiout"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/scheduler"
	"github.com/icco/tubular/internal/timing"
	"github.com/icco/tubular/internal/tui"
)

var playFlags struct {
	out        string
	virtual    string
	sequence   string
	tempo      float64
	beats      uint32
	channel    uint8
	root       uint8
	sampleRate uint32
	bufferMS   int
	volume     float64
	save       bool
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the chord loop and open the editor",
	Long: `Start the audio engine and the step editor.

The loop plays through the built-in synth. With --out the same messages are
mirrored to an existing MIDI output port; with --virtual a new virtual port is
created that other music software can record from.

Examples:
  tubular play --sequence "1...6...4...5..."
  tubular play --virtual "tubular chords" --tempo 96
`,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.StringVarP(&playFlags.out, "out", "o", "", "mirror to this MIDI output port")
	f.StringVar(&playFlags.virtual, "virtual", "", "create a virtual MIDI output port with this name")
	f.StringVarP(&playFlags.sequence, "sequence", "s", "", `initial sequence, e.g. "1...4...5...1..."`)
	f.Float64VarP(&playFlags.tempo, "tempo", "t", 0, "tempo in BPM")
	f.Uint32Var(&playFlags.beats, "beats", 0, "beats per bar (1, 2, 4, 8 or 16)")
	f.Uint8Var(&playFlags.channel, "channel", 0, "MIDI channel, 0-15")
	f.Uint8Var(&playFlags.root, "root", 0, "MIDI note of degree I")
	f.Uint32Var(&playFlags.sampleRate, "sample-rate", 0, "audio sample rate")
	f.IntVar(&playFlags.bufferMS, "buffer", 0, "audio buffer in milliseconds")
	f.Float64Var(&playFlags.volume, "volume", 0, "synth volume, 0-1")
	f.BoolVar(&playFlags.save, "save", false, "write the effective settings back to the config file")
	rootCmd.AddCommand(playCmd)
}

// applyPlayFlags overrides config values with flags the user set.
func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.MIDIOut = playFlags.out
	}
	if f.Changed("virtual") {
		cfg.VirtualPort = playFlags.virtual
	}
	if f.Changed("sequence") {
		cfg.Sequence = playFlags.sequence
	}
	if f.Changed("tempo") {
		cfg.Tempo = playFlags.tempo
	}
	if f.Changed("beats") {
		cfg.BeatsPerBar = playFlags.beats
	}
	if f.Changed("channel") {
		cfg.Channel = playFlags.channel
	}
	if f.Changed("root") {
		cfg.RootNote = playFlags.root
	}
	if f.Changed("sample-rate") {
		cfg.SampleRate = playFlags.sampleRate
	}
	if f.Changed("buffer") {
		cfg.BufferMS = playFlags.bufferMS
	}
	if f.Changed("volume") {
		cfg.Volume = playFlags.volume
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyPlayFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if playFlags.save {
		path := configPath
		if path == "" {
			if path, err = config.Path(); err != nil {
				return err
			}
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
	}

	logFile, err := openLogFile()
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger, err := newLogger(logFile, cfg.LogLevel)
	if err != nil {
		return err
	}

	seq, err := project.ParseSequence(cfg.Sequence)
	if err != nil {
		return fmt.Errorf("sequence: %w", err)
	}
	state, err := project.NewStateFrom(seq, cfg.ProjectTime())
	if err != nil {
		return err
	}

	ti := timing.TimingInfo{FramesPerSecond: cfg.SampleRate}
	table := harmony.Table{Root: harmony.Note(cfg.RootNote)}
	sched := scheduler.New(state, ti, scheduler.Options{Channel: cfg.Channel, Table: table})

	var (
		port   *midiout.Port
		also   scheduler.Writer
		output string
	)
	switch {
	case cfg.MIDIOut != "":
		port, err = midiout.Open(cfg.MIDIOut)
	case cfg.VirtualPort != "":
		port, err = midiout.OpenVirtual(cfg.VirtualPort)
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	forwarderDone := make(chan struct{})
	var fwd *midiout.Forwarder
	if port != nil {
		defer port.Close()
		output = port.String()
		fwd = midiout.NewForwarder(port.Send, midiout.DefaultQueueSize, []uint8{cfg.Channel}, logger)
		also = fwd
		go func() {
			fwd.Run(ctx)
			close(forwarderDone)
		}()
		logger.Info("midi output open", "port", output, "channel", cfg.Channel)
	} else {
		close(forwarderDone)
	}

	renderer := audio.NewRenderer(sched, also)
	renderer.SetVolume(cfg.Volume)

	player, err := audio.NewPlayer(renderer, cfg.SampleRate, time.Duration(cfg.BufferMS)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	player.Play()
	logger.Info("playing", "sequence", seq.String(), "tempo", cfg.Tempo, "beats_per_bar", cfg.BeatsPerBar)

	m := tui.InitialModel(state, tui.Options{
		Timing: ti,
		Table:  table,
		Clock:  renderer,
		Output: output,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		if _, ok := <-c; ok {
			p.Send(tea.Quit())
		}
	}()

	_, runErr := p.Run()

	if err := player.Close(); err != nil {
		logger.Error("closing audio", "err", err)
	}
	cancel()
	<-forwarderDone
	if fwd != nil {
		logger.Info("midi output closed", "sent", fwd.Sent(), "dropped", fwd.Dropped())
	}

	if runErr != nil {
		return fmt.Errorf("error running program: %w", runErr)
	}
	return nil
}
