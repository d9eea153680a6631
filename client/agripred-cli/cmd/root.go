package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	apiURL    string
	authURL   string
	modelURL  string
	tokenFile string
)

var rootCmd = &cobra.Command{
	Use:   "agripred-cli",
	Short: "A CLI client to interact with the AgriPredAI services",
	Long: `A command-line interface for classifying leaf photos with the disease model
and keeping a personal logbook of the results.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:5000", "prediction service base URL")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth-api", "http://localhost:5001", "user service base URL")
	rootCmd.PersistentFlags().StringVar(&modelURL, "model", "http://127.0.0.1:8000", "inference service base URL")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", defaultTokenFile(), "where the login token is stored")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".agripred-token"
	}
	return filepath.Join(dir, "agripred", "token")
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("not logged in, run: agripred-cli login")
		}
		return "", err
	}
	return string(data), nil
}
