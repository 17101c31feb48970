package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the pipeline graph visualization",
	Long:  `Outputs the generation pipeline as plain text, a Mermaid diagram (graph TD) or Graphviz dot.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		serial, _ := cmd.Flags().GetBool("serial")

		output, err := graph.Render(pipeline.Edges(serial), graph.Format(format))
		if err != nil {
			fmt.Printf("Error rendering graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("format", "mermaid", "Output format: text, mermaid or dot")
	graphCmd.Flags().Bool("serial", false, "Describe the serial flow variant")
}
