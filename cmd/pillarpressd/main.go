package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/pillarpress/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "pillarpressd",
		Short:        "pillarpress content server and tools",
		Long:         "pillarpress resolves articles, resources and courses from PostgreSQL and content files and serves them over HTTP",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.ResolveCmd())
	rootCmd.AddCommand(admin.ListCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
