package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/timeline"
	"github.com/icco/tubular/internal/timing"
)

var timelineFlags struct {
	tempo      float64
	beats      uint32
	root       uint8
	sampleRate uint32
}

var timelineCmd = &cobra.Command{
	Use:   "timeline SEQUENCE",
	Short: "Print the note events of one bar",
	Long: `Translate a sequence into the bar-relative note events the scheduler plays.

Example:
  tubular timeline "1...4...5...1..." --sample-rate 8000
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := project.ParseSequence(args[0])
		if err != nil {
			return err
		}
		pt := timing.ProjectTimeInfo{BeatsPerMinute: timelineFlags.tempo, BeatsPerBar: timelineFlags.beats}
		ti := timing.TimingInfo{FramesPerSecond: timelineFlags.sampleRate}
		return printTimeline(cmd.OutOrStdout(), seq, ti, pt, harmony.Table{Root: harmony.Note(timelineFlags.root)})
	},
}

func init() {
	f := timelineCmd.Flags()
	f.Float64VarP(&timelineFlags.tempo, "tempo", "t", 120, "tempo in BPM")
	f.Uint32Var(&timelineFlags.beats, "beats", 4, "beats per bar")
	f.Uint8Var(&timelineFlags.root, "root", uint8(harmony.DefaultRoot), "MIDI note of degree I")
	f.Uint32Var(&timelineFlags.sampleRate, "sample-rate", 44100, "frames per second")
	rootCmd.AddCommand(timelineCmd)
}

func printTimeline(w io.Writer, seq project.ChordSequence, ti timing.TimingInfo, pt timing.ProjectTimeInfo, table harmony.Table) error {
	if err := ti.Validate(pt); err != nil {
		return err
	}
	fmt.Fprintf(w, "sequence: %s\n", seq)
	fmt.Fprintf(w, "frames per bar: %d, per slot: %d\n", ti.FramesPerBar(pt), ti.FramesPerSubdivision(pt))
	for _, e := range timeline.Translate(seq, ti, pt, table) {
		fmt.Fprintf(w, "%8d  %-7s %s\n", e.Offset, e.Kind, e.Note.Name())
	}
	return nil
}
