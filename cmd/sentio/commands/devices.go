package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/audio/portaudio"
)

type device struct {
	Index      int     `json:"index" yaml:"index"`
	Name       string  `json:"name" yaml:"name"`
	Inputs     int     `json:"inputs" yaml:"inputs"`
	Outputs    int     `json:"outputs" yaml:"outputs"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	Default    bool    `json:"default_input" yaml:"default_input"`
}

type devices []device

func (ds devices) Table() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-3s  %-40s  %3s  %3s  %8s\n", "#", "NAME", "IN", "OUT", "RATE")
	for _, d := range ds {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(&sb, "%s%-2d  %-40s  %3d  %3d  %8.0f\n", mark, d.Index, d.Name, d.Inputs, d.Outputs, d.SampleRate)
	}
	return strings.TrimRight(sb.String(), "\n")
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long:  "List PortAudio devices. The default input device, used by 'sentio audio', is marked with *.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := portaudio.Devices()
		if err != nil {
			return err
		}
		defer portaudio.Terminate()

		out := make(devices, 0, len(infos))
		for _, info := range infos {
			out = append(out, device{
				Index:      info.Index,
				Name:       info.Name,
				Inputs:     info.MaxInputChannels,
				Outputs:    info.MaxOutputChannels,
				SampleRate: info.DefaultSampleRate,
				Default:    info.IsDefaultInput,
			})
		}
		return outputResult(out)
	},
}
