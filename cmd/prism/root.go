// Package prism implements the prism command line interface.
package prism

import (
	"math"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/prism/internal/version"
	"github.com/arthur-debert/prism/pkg/config"
	prismerr "github.com/arthur-debert/prism/pkg/errors"
	"github.com/arthur-debert/prism/pkg/logging"
)

const rootLong = `prism concatenates FILE(s), or standard input, to standard output,
repainting every character with a continuous rainbow gradient. With no
FILE, or when FILE is -, it reads standard input.

It composes safely with truncating consumers: a downstream pager that
stops reading simply ends the run with success.`

const rootExample = `  prism f - g       Output f's contents, then stdin, then g's contents.
  prism             Copy standard input to standard output, in color.
  fortune | prism   Display a rainbow cookie.`

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	cfg, cfgErr := config.Load()

	var (
		verbosity  int
		animateArg string
	)

	rootCmd := &cobra.Command{
		Use:     "prism [flags] [file ...]",
		Short:   "Rainbow-colorize input streams",
		Long:    rootLong,
		Example: rootExample,
		Version: version.Version,
		Args:    cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// PRISM_DEBUG is the environment twin of --debug.
			if cfg.Debug || os.Getenv("PRISM_DEBUG") != "" {
				cfg.Debug = true
				if verbosity < 2 {
					verbosity = 2
				}
			}
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			args, err := applyAnimateArg(&cfg, animateArg, args)
			if err != nil {
				return err
			}
			cfg.Files = args
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.Flags()
	flags.Float64VarP(&cfg.Spread, "spread", "p", cfg.Spread, "Rainbow spread over characters")
	flags.Float64VarP(&cfg.Freq, "freq", "F", cfg.Freq, "Rainbow frequency")
	flags.Uint64VarP(&cfg.Seed, "seed", "S", cfg.Seed, "Rainbow seed, 0 picks one from the clock")
	flags.StringVarP(&animateArg, "animate", "a", "", "Animate the rainbow, an optional numeric value sets the duration in frames")
	flags.Lookup("animate").NoOptDefVal = "true"
	flags.IntVarP(&cfg.Duration, "duration", "d", cfg.Duration, "Animation duration in frames")
	flags.Float64VarP(&cfg.Speed, "speed", "s", cfg.Speed, "Animation speed in frames per second")
	flags.BoolVarP(&cfg.Invert, "invert", "i", cfg.Invert, "Color the background instead of the foreground")
	flags.BoolVarP(&cfg.TrueColor, "truecolor", "t", cfg.TrueColor, "Force 24-bit color output")
	flags.BoolVarP(&cfg.Force, "force", "f", cfg.Force, "Color even when stdout is not a terminal")
	flags.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable coloring")
	flags.BoolVarP(&cfg.Debug, "debug", "D", false, "Print internal diagnostics")

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		rainbowHelp(cmd, cfg.NoColor)
	})

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd(rootCmd))

	return rootCmd
}

// applyAnimateArg interprets --animate's optional value. A bare flag
// just turns animation on. An attached value (--animate=2), or a
// numeric argument immediately following the bare flag (--animate 2,
// -a 2), overrides the duration; a non-numeric following argument
// stays a file.
func applyAnimateArg(cfg *config.Config, raw string, args []string) ([]string, error) {
	if raw == "" {
		return args, nil
	}
	cfg.Animate = true

	if raw == "true" {
		if len(args) == 0 {
			return args, nil
		}
		if _, err := strconv.ParseFloat(args[0], 64); err != nil {
			return args, nil
		}
		raw, args = args[0], args[1:]
	}

	frames, err := durationFrames(raw)
	if err != nil {
		return nil, err
	}
	cfg.Duration = frames
	return args, nil
}

// durationFrames converts a fractional duration value to a whole frame
// count, rounding and keeping at least one frame.
func durationFrames(raw string) (int, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, prismerr.Newf(prismerr.ErrConfigValid, "--animate expects a number, got %q", raw)
	}
	if v < 0.1 {
		return 0, prismerr.New(prismerr.ErrConfigValid, "--duration must be >= 0.1")
	}
	frames := int(math.Round(v))
	if frames < 1 {
		frames = 1
	}
	return frames, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version information for prism`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("prism version %s\n", version.Version)
			cmd.Printf("  commit: %s\n", version.Commit)
			cmd.Printf("  built:  %s\n", version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(prism completion bash)

Zsh:
  $ prism completion zsh > "${fpath[1]}/_prism"

Fish:
  $ prism completion fish | source

PowerShell:
  PS> prism completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate bash completion")
				}
			case "zsh":
				if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate zsh completion")
				}
			case "fish":
				if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
					log.Error().Err(err).Msg("Failed to generate fish completion")
				}
			case "powershell":
				if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate powershell completion")
				}
			}
		},
	}
}

func newManCmd(root *cobra.Command) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "man",
		Short: "Generate man pages",
		Long:  `Generate man pages for prism`,
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{
				Title:   "PRISM",
				Section: "1",
			}
			return doc.GenManTree(root, header, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write man pages to")
	return cmd
}
