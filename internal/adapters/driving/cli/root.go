// Package cli wires the cobra command surface to the export pipeline.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outcal/internal/adapters/driven/config/file"
	"github.com/custodia-labs/outcal/internal/connectors/microsoft/graph"
	"github.com/custodia-labs/outcal/internal/connectors/microsoft/webcal"
	"github.com/custodia-labs/outcal/internal/core/domain"
	"github.com/custodia-labs/outcal/internal/core/ports/driven"
	"github.com/custodia-labs/outcal/internal/core/services"
	"github.com/custodia-labs/outcal/internal/deliver"
	"github.com/custodia-labs/outcal/internal/format"
	"github.com/custodia-labs/outcal/internal/logger"
)

var (
	// version is set by goreleaser ldflags.
	version = "dev"

	verbose bool

	flagConfig      string
	flagTarget      string
	flagCLI         bool
	flagICal        bool
	flagJSON        bool
	flagOutput      string
	flagPost        bool
	flagListTargets bool
	flagBrowser     string
	flagDays        int
	flagHeadless    bool
)

// Factories are package variables so tests can substitute fakes without
// a browser or an identity provider.
var (
	newGraphAuthenticator = func(app domain.GraphApp) (driven.Authenticator, error) {
		return graph.NewAuthenticator(graph.AuthConfig{App: app})
	}
	newBrowserAuthenticator = func(engine string, headless bool) driven.Authenticator {
		return webcal.NewAuthenticator(webcal.AuthConfig{Engine: engine, Headless: headless})
	}
	promptPassword = readPassword
)

// rootCmd is the base command. Running it with no subcommand performs
// the export.
var rootCmd = &cobra.Command{
	Use:   "outcal",
	Short: "Export upcoming Outlook calendar events",
	Long: `Outcal fetches your upcoming Outlook calendar events and emits them as
text, iCal, or JSON, optionally POSTing the result to an mTLS-protected
endpoint.

By default it drives a real browser session against the Outlook web
calendar; with --cli it talks to the Microsoft Graph API instead and
never opens a window.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "outcal: %v\n", err)
		return domain.ExitCode(err)
	}
	return domain.ExitSuccess
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := file.Load(flagConfig)
	if err != nil {
		return err
	}

	if flagListTargets {
		return listTargets(cmd, cfg)
	}

	kind, err := outputKind()
	if err != nil {
		return err
	}

	profile, err := resolveTarget(cfg)
	if err != nil {
		return err
	}

	if profile.Password == "" && flagCLI {
		// The Graph variant has no login form to type into; block on a
		// terminal prompt instead.
		profile.Password, err = promptPassword(profile.Username)
		if err != nil {
			return err
		}
	}

	auth, err := buildAuthenticator(cfg)
	if err != nil {
		return err
	}

	sink, err := buildSink(cfg)
	if err != nil {
		return err
	}

	exporter := services.NewExporter(auth, sink, kind, flagDays)
	return exporter.Run(cmd.Context(), profile)
}

// outputKind resolves the format flags. Posting only makes sense with a
// JSON body.
func outputKind() (format.Kind, error) {
	if flagICal && flagJSON {
		return format.Text, fmt.Errorf("%w: --ical and --json are mutually exclusive", domain.ErrConfigInvalid)
	}
	if flagPost && !flagJSON {
		return format.Text, fmt.Errorf("%w: --post requires --json", domain.ErrConfigInvalid)
	}
	switch {
	case flagICal:
		return format.ICal, nil
	case flagJSON:
		return format.JSON, nil
	default:
		return format.Text, nil
	}
}

// resolveTarget picks the target profile. With no --target and exactly
// one configured target, that target is used.
func resolveTarget(cfg *file.Config) (domain.TargetProfile, error) {
	name := flagTarget
	if name == "" {
		names := cfg.TargetNames()
		if len(names) != 1 {
			return domain.TargetProfile{}, fmt.Errorf(
				"%w: %d targets configured, select one with --target", domain.ErrTargetNotFound, len(names))
		}
		name = names[0]
	}
	return cfg.Target(name)
}

func buildAuthenticator(cfg *file.Config) (driven.Authenticator, error) {
	if flagCLI {
		app, err := cfg.GraphApp()
		if err != nil {
			return nil, err
		}
		return newGraphAuthenticator(app)
	}
	return newBrowserAuthenticator(flagBrowser, flagHeadless), nil
}

// buildSink picks the destination. mTLS material is validated here,
// before any provider traffic. When the document itself goes to stdout
// the status chatter is silenced so the output stays machine-readable.
func buildSink(cfg *file.Config) (driven.Sink, error) {
	if flagOutput == "" && !verbose {
		logger.SetQuiet(true)
	}
	local := &deliver.FileSink{Path: flagOutput}

	if !flagPost {
		return local, nil
	}

	url, err := cfg.PostURL()
	if err != nil {
		return nil, err
	}
	paths, err := cfg.MTLSPaths()
	if err != nil {
		return nil, err
	}
	post, err := deliver.NewHTTPSink(url, paths)
	if err != nil {
		return nil, err
	}

	// The local copy is written first so the document is still available
	// when the POST fails.
	return &deliver.Tee{Sinks: []driven.Sink{local, post}}, nil
}

func listTargets(cmd *cobra.Command, cfg *file.Config) error {
	names := cfg.TargetNames()
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No targets configured.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, cfg.TargetUsername(name))
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.config/outcal/config.toml)")

	rootCmd.Flags().StringVarP(&flagTarget, "target", "t", "", "target account to export")
	rootCmd.Flags().BoolVar(&flagCLI, "cli", false, "use the Graph API instead of a browser session")
	rootCmd.Flags().BoolVar(&flagICal, "ical", false, "emit iCal instead of text")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write output to a file instead of stdout")
	rootCmd.Flags().BoolVar(&flagPost, "post", false, "POST the JSON output to the configured endpoint")
	rootCmd.Flags().BoolVar(&flagListTargets, "list-targets", false, "list configured targets and exit")
	rootCmd.Flags().StringVar(&flagBrowser, "browser", "chromium", "browser engine (chromium, chrome, edge, or a path)")
	rootCmd.Flags().IntVar(&flagDays, "days", domain.DefaultHorizonDays, "number of days to fetch")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser without a window")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
