package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	profile    string
	host       string
	token      string
	configPath string
	verbose    bool
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	scaffoldOpts := &scaffoldOptions{}

	cmd := &cobra.Command{
		Use:   "dbx-aidev",
		Short: "Create Databricks AI development documentation scaffolding",
		Long: "This command generates static documentation and AI command structures that enable AI tools " +
			"like Claude Code to effectively work with Databricks CLI and SDK operations.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScaffold(cmd, flags, scaffoldOpts)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.profile, "profile", "", "Profile in ~/.databrickscfg to authenticate with")
	cmd.PersistentFlags().StringVar(&flags.host, "host", "", "Workspace URL (used with --token)")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "Personal access token (used with --host)")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to the dbx-aidev settings file (default ~/.dbx-aidev/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Output results as JSON")

	cmd.Flags().BoolVarP(&scaffoldOpts.yes, "yes", "y", false, "Accept every prompt")
	cmd.Flags().StringVarP(&scaffoldOpts.dir, "dir", "d", ".", "Project directory to scaffold into")
	cmd.Flags().BoolVar(&scaffoldOpts.gitRoot, "git-root", false, "Scaffold into the root of the enclosing git repository")
	cmd.Flags().StringVar(&scaffoldOpts.templates, "templates", "", "Directory to read templates from instead of the bundled set")

	cmd.AddCommand(newSQLCmd(flags))
	cmd.AddCommand(newNotebookCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
