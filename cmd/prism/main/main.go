package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/prism/cmd/prism"
)

func main() {
	rootCmd := prism.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// Print the error in red
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("prism: %v", err)))
		os.Exit(1)
	}
}
