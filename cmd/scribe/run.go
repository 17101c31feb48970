package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/adapters/file"
	"github.com/aretw0/scribe/internal/cli"
	"github.com/aretw0/scribe/internal/presentation/tui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [technologies...]",
	Short: "Generate a document for the given technologies",
	Long: `Runs the generation pipeline locally and prints the document to stdout.
Technologies come from the arguments (comma separated values are split) or
from a file with one technology per line.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger, err := cli.NewLogger(cfg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		listPath, _ := cmd.Flags().GetString("file")
		technologies, err := gatherTechnologies(args, listPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(technologies) == 0 && tui.IsTerminal(os.Stdin) {
			technologies, err = promptTechnologies(os.Stdin, os.Stderr)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}
		if len(technologies) == 0 {
			fmt.Println("Error: no technologies given. Pass them as arguments or via --file.")
			os.Exit(1)
		}

		serial, _ := cmd.Flags().GetBool("serial")
		plain, _ := cmd.Flags().GetBool("plain")
		outDir, _ := cmd.Flags().GetString("out")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gen, err := cli.NewGenerator(ctx, cfg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := []scribe.Option{
			scribe.WithLogger(logger),
			scribe.WithPipelineConfig(cfg.Pipeline),
		}
		if serial {
			opts = append(opts, scribe.WithSerial())
		}
		engine, err := scribe.New(gen, cli.NewSearcher(cfg), opts...)
		if err != nil {
			fmt.Printf("Error initializing scribe: %v\n", err)
			os.Exit(1)
		}

		renderer := tui.NewRenderer(os.Stdout, plain)
		renderer.Banner(scribe.Version, technologies)

		started := time.Now()
		doc, err := engine.Generate(ctx, technologies)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("document generated",
			"technologies", len(doc.Technologies),
			"chars", len(doc.Markdown),
			"elapsed", time.Since(started).Round(time.Millisecond),
		)

		if outDir != "" {
			archive := file.NewArchive(outDir)
			path, err := archive.Store(ctx, doc)
			if err != nil {
				fmt.Printf("Error saving document: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Document saved to: %s\n", path)
		}

		if err := renderer.Render(doc.Markdown); err != nil {
			fmt.Printf("Error rendering document: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("file", "f", "", "Read technologies from a file, one per line")
	runCmd.Flags().StringP("out", "o", "", "Directory to save the generated document in")
	runCmd.Flags().Bool("serial", false, "Run outline and research one after the other")
	runCmd.Flags().Bool("plain", false, "Disable styled terminal output")
}

// promptTechnologies asks for a comma-separated list, the interactive path
// when run is started bare at a terminal.
func promptTechnologies(in io.Reader, out io.Writer) ([]string, error) {
	fmt.Fprintln(out, "Enter technologies to research (comma-separated):")
	fmt.Fprintln(out, "Example: FastAPI, Vue.js, Redis, Docker")
	fmt.Fprint(out, "> ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	return gatherTechnologies([]string{line}, "")
}

// gatherTechnologies merges positional arguments with the optional list file.
// Comma separated arguments are split so quoted lists work:
//
//	scribe run "FastAPI, Vue.js, Redis"
func gatherTechnologies(args []string, listPath string) ([]string, error) {
	var technologies []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				technologies = append(technologies, part)
			}
		}
	}
	if listPath != "" {
		fromFile, err := readTechnologyFile(listPath)
		if err != nil {
			return nil, err
		}
		technologies = append(technologies, fromFile...)
	}
	return technologies, nil
}

// readTechnologyFile reads one technology per line; blank lines and lines
// starting with # are skipped.
func readTechnologyFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var technologies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		technologies = append(technologies, line)
	}
	return technologies, nil
}
