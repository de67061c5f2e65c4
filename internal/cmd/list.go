package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dslh/cadscript-mcp/internal/persistence"
	"github.com/dslh/cadscript-mcp/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the CAD tools and saved scripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return ListTools(cmd.OutOrStdout(), a.generator.Registry(), a.store)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// builtinTools are the MCP tools that are not registry tools
var builtinTools = []struct {
	name        string
	description string
}{
	{"generate_script", "Combine an ordered list of CAD tool calls into one script"},
	{"list_cad_tools", "List the CAD tools with their parameters"},
	{"save_script", "Generate a script and save it as a Fusion 360 script folder"},
	{"list_saved_scripts", "List all saved scripts"},
	{"show_saved_script", "Show the source of a saved script"},
	{"delete_saved_script", "Delete a saved script"},
}

// ListTools writes the tool catalog and the saved scripts to w
func ListTools(w io.Writer, reg *registry.Registry, store *persistence.Store) error {
	fmt.Fprintln(w, "CAD Tools:")
	for _, def := range reg.List() {
		fmt.Fprintf(w, "  • %s(%s) - %s\n", def.Name, def.Signature(), def.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Built-in Tools:")
	for _, tool := range builtinTools {
		fmt.Fprintf(w, "  • %s - %s\n", tool.name, tool.description)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Saved Scripts (%s):\n", store.Dir())
	scripts, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to load saved scripts: %w", err)
	}
	if len(scripts) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	for _, s := range scripts {
		if s.Description == "" {
			fmt.Fprintf(w, "  • %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "  • %s - %s\n", s.Name, s.Description)
	}
	return nil
}
