package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/scheduler"
	"github.com/icco/tubular/internal/timeline"
	"github.com/icco/tubular/internal/timing"
)

var traceFlags struct {
	sequence   string
	tempo      float64
	beats      uint32
	channel    uint8
	root       uint8
	sampleRate uint32
	window     uint32
	windows    int
	start      uint64
	edits      []string
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Print the messages the scheduler emits, without audio",
	Long: `Run the scheduler over a series of windows and print every message.

Edits are applied between windows with --edit window:slot=degree, where a
degree of "." clears the slot. Slots are numbered 0-15.

Example:
  tubular trace --sequence "1...4..." --sample-rate 8000 --window 500 \
    --windows 40 --edit 10:4=6 --edit 20:0=.
`,
	RunE: runTrace,
}

func init() {
	f := traceCmd.Flags()
	f.StringVarP(&traceFlags.sequence, "sequence", "s", "1...4...5...1...", "sequence to play")
	f.Float64VarP(&traceFlags.tempo, "tempo", "t", 120, "tempo in BPM")
	f.Uint32Var(&traceFlags.beats, "beats", 4, "beats per bar")
	f.Uint8Var(&traceFlags.channel, "channel", 0, "MIDI channel, 0-15")
	f.Uint8Var(&traceFlags.root, "root", uint8(harmony.DefaultRoot), "MIDI note of degree I")
	f.Uint32Var(&traceFlags.sampleRate, "sample-rate", 44100, "frames per second")
	f.Uint32Var(&traceFlags.window, "window", 512, "frames per window")
	f.IntVar(&traceFlags.windows, "windows", 0, "number of windows (default one bar)")
	f.Uint64Var(&traceFlags.start, "start", 0, "absolute frame of the first window")
	f.StringArrayVarP(&traceFlags.edits, "edit", "e", nil, "edit applied before a window, window:slot=degree")
	rootCmd.AddCommand(traceCmd)
}

// traceEdit changes one slot before the given window runs.
type traceEdit struct {
	window int
	slot   timing.Tatum
	degree harmony.Degree
}

func (e traceEdit) apply(s *project.State) {
	if e.degree == harmony.None {
		s.ClearChord(e.slot)
		return
	}
	s.SetChord(e.slot, e.degree)
}

func (e traceEdit) String() string {
	if e.degree == harmony.None {
		return fmt.Sprintf("%d:%d=.", e.window, int(e.slot))
	}
	return fmt.Sprintf("%d:%d=%s", e.window, int(e.slot), e.degree)
}

var errEditSyntax = errors.New("edit must look like window:slot=degree")

func parseEdit(s string) (traceEdit, error) {
	win, rest, ok := strings.Cut(s, ":")
	if !ok {
		return traceEdit{}, fmt.Errorf("%q: %w", s, errEditSyntax)
	}
	slot, deg, ok := strings.Cut(rest, "=")
	if !ok {
		return traceEdit{}, fmt.Errorf("%q: %w", s, errEditSyntax)
	}

	w, err := strconv.Atoi(win)
	if err != nil || w < 0 {
		return traceEdit{}, fmt.Errorf("%q: bad window %q", s, win)
	}
	i, err := strconv.Atoi(slot)
	if err != nil {
		return traceEdit{}, fmt.Errorf("%q: bad slot %q", s, slot)
	}
	t, err := timing.NewTatum(i)
	if err != nil {
		return traceEdit{}, fmt.Errorf("%q: %w", s, err)
	}

	e := traceEdit{window: w, slot: t}
	switch deg {
	case ".", "-", "0":
	default:
		d, err := harmony.ParseDegree(deg)
		if err != nil {
			return traceEdit{}, fmt.Errorf("%q: %w", s, err)
		}
		e.degree = d
	}
	return e, nil
}

type traceOptions struct {
	timing  timing.TimingInfo
	opts    scheduler.Options
	window  uint32
	windows int
	start   uint64
	edits   []traceEdit
}

// trace runs the scheduler window by window against state and prints what
// it emits. It returns the number of messages printed.
func trace(w io.Writer, state *project.State, o traceOptions, logger *log.Logger) (int, error) {
	if o.window == 0 {
		return 0, errors.New("window must be at least one frame")
	}
	if err := o.timing.Validate(state.Time()); err != nil {
		return 0, err
	}
	edits := slices.Clone(o.edits)
	slices.SortStableFunc(edits, func(a, b traceEdit) int { return a.window - b.window })

	sched := scheduler.New(state, o.timing, o.opts)
	rec := scheduler.NewRecorder(timeline.MaxEvents + 128)

	count := 0
	next := 0
	for win := 0; win < o.windows; win++ {
		for next < len(edits) && edits[next].window == win {
			edits[next].apply(state)
			logger.Debug("edit", "window", win, "slot", int(edits[next].slot), "degree", edits[next].degree)
			fmt.Fprintf(w, "-- edit %s\n", edits[next])
			next++
		}

		start := o.start + uint64(win)*uint64(o.window)
		rec.Reset()
		if err := sched.Process(start, o.window, rec); err != nil {
			return count, err
		}
		for _, m := range rec.Messages {
			fmt.Fprintf(w, "%6d %10d +%-5d %s\n", win, start+uint64(m.Offset), m.Offset, midi.Message(m.Data()))
			count++
		}
	}
	if next < len(edits) {
		logger.Warn("edits after the last window were not applied", "count", len(edits)-next)
	}
	return count, nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr, logLevel)
	if err != nil {
		return err
	}

	seq, err := project.ParseSequence(traceFlags.sequence)
	if err != nil {
		return err
	}
	pt := timing.ProjectTimeInfo{BeatsPerMinute: traceFlags.tempo, BeatsPerBar: traceFlags.beats}
	state, err := project.NewStateFrom(seq, pt)
	if err != nil {
		return err
	}
	if traceFlags.channel > 15 {
		return fmt.Errorf("midi channel %d out of range [0, 15]", traceFlags.channel)
	}
	if traceFlags.root > 127-17 {
		return fmt.Errorf("root note %d leaves no room for the table", traceFlags.root)
	}

	edits := make([]traceEdit, 0, len(traceFlags.edits))
	for _, s := range traceFlags.edits {
		e, err := parseEdit(s)
		if err != nil {
			return err
		}
		edits = append(edits, e)
	}

	ti := timing.TimingInfo{FramesPerSecond: traceFlags.sampleRate}
	if err := ti.Validate(pt); err != nil {
		return err
	}
	windows := traceFlags.windows
	if windows <= 0 && traceFlags.window > 0 {
		bar := ti.FramesPerBar(pt)
		windows = int((bar + traceFlags.window - 1) / traceFlags.window)
	}

	logger.Info("tracing",
		"sequence", seq.String(),
		"frames_per_bar", ti.FramesPerBar(pt),
		"frames_per_slot", ti.FramesPerSubdivision(pt),
		"windows", windows,
	)

	n, err := trace(cmd.OutOrStdout(), state, traceOptions{
		timing:  ti,
		opts:    scheduler.Options{Channel: traceFlags.channel, Table: harmony.Table{Root: harmony.Note(traceFlags.root)}},
		window:  traceFlags.window,
		windows: windows,
		start:   traceFlags.start,
		edits:   edits,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("done", "messages", n)
	return nil
}
