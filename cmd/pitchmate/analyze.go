package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gulaysahinn/pitchmate-pro/pkg/pitchmate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var (
		opts   pitchmate.AnalyzeOptions
		format string
	)

	cmd := &cobra.Command{
		Use:   "analyze VIDEO",
		Short: "Score one recorded presentation and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (json or yaml)", format)
			}
			opts.VideoPath = args[0]

			app, err := startApp(cmd.Context(), v, opts.Save)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			out, err := app.Analyze(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), format, out.Output())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.AudioPath, "audio", "", "separate audio recording to analyze")
	f.BoolVar(&opts.NoExtract, "no-extract", false, "do not analyze the video's own audio track")
	f.StringVarP(&format, "format", "f", "json", "output format: json, yaml")
	f.BoolVar(&opts.Save, "save", false, "store the result in the database")
	f.BoolVar(&opts.Feedback, "feedback", false, "add generated coaching commentary")
	return cmd
}

func writeReport(w io.Writer, format string, report map[string]any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}
