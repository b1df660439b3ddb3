package cmd

import (
	"github.com/HumanPrinter/enkoni-sub003/pkg/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

// newRootCmd builds the command tree. Dependencies are resolved lazily in
// PersistentPreRunE so --config and --log-level are honoured.
func newRootCmd(fs afero.Fs) *cobra.Command {
	c := &container{fs: fs}
	root := &cobra.Command{
		Use:     "enkoni",
		Version: version.Summary(),
		Short:   "Manage a file-backed contact list",
		Long: `enkoni keeps contacts in a CSV, XML or JSON file.

Contacts are validated (Dutch phone numbers, e-mail addresses, IBANs) before
they are saved, and the data file can be watched for changes made by other
processes. With redis_addr configured, change notifications are shared with
every other enkoni process on the same channel.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd == cmd.Root() || cmd.Name() == "help" || cmd.Annotations[annotationNoContainer] == "true" {
				return nil
			}
			return c.init(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "Config file (default .enkoni.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "Output format: table or yaml")
	root.AddCommand(
		newContactsCmd(c),
		newValidateCmd(c),
		newWatchCmd(c),
		newVersionCmd(),
	)
	return root
}

// InitCommands builds the command tree on the OS filesystem.
func InitCommands() error {
	rootCmd = newRootCmd(afero.NewOsFs())
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}
