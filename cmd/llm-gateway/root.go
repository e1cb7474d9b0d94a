package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "llm-gateway",
		Short:        "Normalizing gateway in front of several LLM backends",
		Long:         "llm-gateway exposes Gemini, xAI, Ollama, Anthropic and a mock backend behind one HTTP surface with uniform reasoning levels, event streams and errors.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Config file (yaml, json or toml)")

	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}
