package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/greg-hahn/cog-council-meetings/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "councild",
		Short: "Council meetings daemon and CLI",
		Long:  "Council meetings daemon for running the API server and ingesting meeting agendas",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.DiscoverCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
