// Downloads the audio of a single video and prints the recognition response.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"jamesfarrell.me/audd-recognizer/internal/config"
	"jamesfarrell.me/audd-recognizer/internal/fetcher"
	"jamesfarrell.me/audd-recognizer/internal/pipeline"
	"jamesfarrell.me/audd-recognizer/internal/recognition"
)

var (
	outputDir string
	apiToken  string
	endpoint  string
	providers string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "recognize <video-url>",
	Short: "Identify the music in a video",
	Long: `recognize downloads the audio track of a video, saves it as an .mp3
file and uploads it to the AudD recognition API, printing the raw response.

Settings are read from the environment (and a .env file); flags override them.

Example:
  recognize https://www.youtube.com/watch?v=Y9QfOPxmxVI --output ./audio`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRecognize,
}

func init() {
	config.LoadEnv()

	rootCmd.Flags().StringVarP(&outputDir, "output", "o", os.Getenv("OUTPUT_DIR"), "directory to save the audio file (default is the working directory)")
	rootCmd.Flags().StringVar(&apiToken, "token", "", "recognition API token (env AUDD_API_TOKEN)")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "recognition API endpoint (env AUDD_ENDPOINT)")
	rootCmd.Flags().StringVar(&providers, "return", "", "catalog providers to return (env AUDD_RETURN)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "ERROR, WARN, INFO or DEBUG (env LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	config.NewLogger(cfg.LogLevel)

	youtubeClient, err := fetcher.NewYoutubeClient(cfg.Socks5Proxy, cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	p := pipeline.New(
		fetcher.New(youtubeClient),
		recognition.NewClient(cfg.Endpoint, cfg.APIToken, cfg.Return, &http.Client{Timeout: cfg.HTTPTimeout}),
	)

	result, err := p.Run(cmd.Context(), args[0], cfg.OutputDir)
	printResponse(cmd.OutOrStdout(), result)
	return err
}

// printResponse writes the raw service response, including error replies.
func printResponse(w io.Writer, result pipeline.Result) {
	if result.Response != "" {
		fmt.Fprintln(w, result.Response)
	}
}

func applyFlags(cfg *config.Config) {
	cfg.OutputDir = outputDir
	if apiToken != "" {
		cfg.APIToken = apiToken
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if providers != "" {
		cfg.Return = providers
	}
	if logLevel != "" {
		cfg.LogLevel = config.ParseLogLevel(logLevel)
	}
}
