package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"docustream/pkg/config"
	"docustream/pkg/credentials"
	"docustream/pkg/logging"
	"docustream/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()

	debugFlag       bool
	tokenFlag       string
	tokenPromptFlag bool
	sofficeFlag     string
	timeoutFlag     string
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "docustream",
	Short: "docustream merges documents and repository files into one artifact",
	Long: `docustream queues local files, pasted text, gists and GitHub repository
files, then merges them into a single text, PDF or DOCX document. Text output
can be sanitized and is sized against common model context windows.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	flags.StringVar(&tokenFlag, "token", "", "GitHub token (overrides GITHUB_TOKEN)")
	flags.BoolVar(&tokenPromptFlag, "token-prompt", false, "Read the GitHub token from the terminal")
	flags.StringVar(&sofficeFlag, "soffice", "", "Document converter binary (overrides DOCUSTREAM_SOFFICE)")
	flags.StringVar(&timeoutFlag, "timeout", "", "Per-request GitHub timeout, e.g. 30s")
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.Load()
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debugFlag
	}
	if err := logging.Setup(cfg.Debug, "docustream", version.Get().Version); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logging.Logger

	if tokenFlag != "" {
		cfg.GitHubToken = tokenFlag
	}
	if tokenPromptFlag {
		tok, err := promptToken()
		if err != nil {
			return err
		}
		cfg.GitHubToken = tok
	}
	if cfg.GitHubToken == "" {
		switch tok, err := credentials.Token(); {
		case err == nil:
			cfg.GitHubToken = tok
		case !errors.Is(err, credentials.ErrNotFound):
			logger.Debug("Keyring lookup failed", zap.Error(err))
		}
	}
	if sofficeFlag != "" {
		cfg.SOfficeBinary = sofficeFlag
	}
	if timeoutFlag != "" {
		d, err := parseTimeout(timeoutFlag)
		if err != nil {
			return err
		}
		cfg.HTTPTimeout = d
	}

	logger.Debug("Configuration loaded",
		zap.Bool("authenticated", cfg.GitHubToken != ""),
		zap.String("soffice", cfg.SOfficeBinary),
		zap.Duration("httpTimeout", cfg.HTTPTimeout),
		zap.Int("maxFileMB", cfg.MaxFileSizeMB))
	return nil
}

func promptToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--token-prompt needs an interactive terminal")
	}
	fmt.Fprint(os.Stderr, "GitHub token: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
