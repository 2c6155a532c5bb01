package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// CMD is the root command; subcommands register themselves via init()
// in the same package, mirroring the teacher's cmd.CMD convention.
var CMD = &cobra.Command{
	Use:   "mavdiscover",
	Short: "MAVLink USB device discovery daemon",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()
		return nil
	},
}
