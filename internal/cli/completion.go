package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for sb",
	Long: `Set up shell tab-completions for sb commands, flags, and task statuses.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script under your home directory):

  sb completion bash --install
  sb completion zsh --install
  sb completion fish --install

Or print the completion script to stdout:

  eval "$(sb completion bash)"
  sb completion fish | source
  sb completion powershell | Out-String | Invoke-Expression`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

// shellCompletion describes how to generate and where to install the
// completion script of one shell. An empty installPath means the shell has
// no automatic install.
type shellCompletion struct {
	generate    func(w io.Writer) error
	installPath []string // relative to the home directory
	afterHint   string
}

func shellCompletions() map[string]shellCompletion {
	return map[string]shellCompletion{
		"bash": {
			generate:    func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
			installPath: []string{".local", "share", "bash-completion", "completions", "sb"},
			afterHint:   "Restart your shell or source the file to enable completions.",
		},
		"zsh": {
			generate:    rootCmd.GenZshCompletion,
			installPath: []string{".local", "share", "zsh", "site-functions", "_sb"},
			afterHint:   "Ensure the directory is in your fpath, then run: autoload -Uz compinit && compinit",
		},
		"fish": {
			generate:    func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
			installPath: []string{".config", "fish", "completions", "sb.fish"},
			afterHint:   "Completions will be available in new fish sessions automatically.",
		},
		"powershell": {
			generate: rootCmd.GenPowerShellCompletionWithDesc,
		},
	}
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions under your home directory")

	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell := args[0]
	sc, ok := shellCompletions()[shell]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}

	if !completionInstall {
		return sc.generate(cmd.OutOrStdout())
	}

	if len(sc.installPath) == 0 {
		return fmt.Errorf("automatic install is not supported for %s; run 'sb completion %s' and add the output to your profile", shell, shell)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	target := filepath.Join(append([]string{home}, sc.installPath...)...)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, sc.generate); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s completions installed to %s\n%s\n", shell, target, sc.afterHint)
	return nil
}

// writeCompletionFile creates target and fills it with genFn, propagating
// close errors.
func writeCompletionFile(target string, genFn func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := genFn(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
