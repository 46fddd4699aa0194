package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := startApp(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer app.Shutdown()
			return app.Serve(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String(keyAddr, ":8080", "listen address")
	f.String(keyUploadDir, "", "directory for uploaded videos")
	f.Int(keyMaxJobs, 0, "analyses allowed to run at once")
	v.BindPFlag(keyAddr, f.Lookup(keyAddr))
	v.BindPFlag(keyUploadDir, f.Lookup(keyUploadDir))
	v.BindPFlag(keyMaxJobs, f.Lookup(keyMaxJobs))
	return cmd
}
