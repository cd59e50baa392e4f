// Command nodeflowctl is an illustrative external consumer of
// nodeflow-core: load a graph document, evaluate one output socket, and
// print the result. It is not part of the core library — the core itself
// has no CLI, env, or file-system surface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nodeflow-dev/nodeflow-core/editor"
	"github.com/nodeflow-dev/nodeflow-core/graph"
	"github.com/nodeflow-dev/nodeflow-core/ids"
)

var version = "0.1.0"

func main() {
	_ = godotenv.Load() // optional .env loaded into the environment; absence is not an error, and no command reads it

	root := &cobra.Command{
		Use:   "nodeflowctl",
		Short: "nodeflowctl evaluates nodeflow-core graph documents from the command line",
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nodeflowctl v%s\n", version)
		},
	})
	root.AddCommand(newEvalCmd())
	root.AddCommand(newDotCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEvalCmd() *cobra.Command {
	var socketName string
	cmd := &cobra.Command{
		Use:   "eval <document.json>",
		Short: "Evaluate a named output socket and print its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}

			store, err := editor.Open(data, editor.WithCatalog(demoCatalog()))
			if err != nil {
				return fmt.Errorf("loading document: %w", err)
			}

			socketID, err := findSocketByName(store.Graph(), socketName)
			if err != nil {
				return err
			}

			if err := store.RequestOutput(socketID); err != nil {
				return fmt.Errorf("requesting output: %w", err)
			}
			value, err := store.Run(context.Background())
			if err != nil {
				return fmt.Errorf("evaluating: %w", err)
			}

			out, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&socketName, "socket", "", "name of the output socket to evaluate (required)")
	cmd.MarkFlagRequired("socket")
	return cmd
}

func newDotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot <document.json>",
		Short: "Print a Graphviz DOT rendering of a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			store, err := editor.Open(data)
			if err != nil {
				return fmt.Errorf("loading document: %w", err)
			}
			fmt.Println(graph.WriteDOT(store.Graph()))
			return nil
		},
	}
}

// findSocketByName scans every node's output sockets for one matching
// name, returning an error listing the possibilities if it's ambiguous or
// missing — there is no single "the" output socket in a multi-node graph,
// so the CLI requires the caller to disambiguate by name.
func findSocketByName(g *graph.Graph, name string) (ids.SocketId, error) {
	var matches []ids.SocketId
	for _, s := range g.Sockets() {
		if s.Direction == graph.DirectionOutput && s.Name == name {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no output socket named %q", name)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("socket name %q is ambiguous: %d output sockets share it", name, len(matches))
	}
}
