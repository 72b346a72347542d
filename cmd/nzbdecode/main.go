// Command nzbdecode fetches and decodes Usenet article bodies named by
// an NZB file, descended from the teacher's cmd/gonzb/main.go: the
// same single cobra root command plus signal-driven graceful shutdown,
// split across fetch/decode-file/serve subcommands instead of one
// implicit download action.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nzbdecode",
	Short: "nzbdecode fetches and decodes Usenet article bodies",
	Long:  "A streaming yEnc/uuencode NNTP article decoder and Usenet article fetcher.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(decodeFileCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
