package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/icco/tubular/internal/midiout"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Long: `List the MIDI output ports that play --out can connect to.

Example:
  tubular ports
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := midiout.OutPorts()
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "no MIDI output ports found")
			return nil
		}
		indexStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
		for i, name := range names {
			fmt.Fprintf(out, "%s %s\n", indexStyle.Render(fmt.Sprintf("%2d", i)), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
