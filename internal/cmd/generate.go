package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dslh/cadscript-mcp/internal/persistence"
	"github.com/dslh/cadscript-mcp/internal/types"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

var (
	generateInput       string
	generateOutput      string
	generateSave        string
	generateDescription string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a script from a JSON file of tool calls",
	Long: `Generate a Fusion 360 script from a JSON array of tool calls, or from an
object of the form {"tool_calls": [...]}. Reads stdin when --input is "-".`,
	Example: `  cadscript generate --input bracket.json --output bracket.py
  echo '[{"tool_name": "CreateSketch"}]' | cadscript generate --save sketch`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "-", "tool call JSON file, - for stdin")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the script to this file instead of stdout")
	generateCmd.Flags().StringVar(&generateSave, "save", "", "also save the script under this name in the scripts directory")
	generateCmd.Flags().StringVar(&generateDescription, "description", "", "description stored with --save")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd.InOrStdin(), generateInput)
	if err != nil {
		return err
	}
	calls, err := decodeToolCalls(data)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	source, err := a.generator.Generate(cmd.Context(), "cli", calls)
	if err != nil {
		return errors.New(validation.FormatValidationError(err))
	}

	if generateOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), source)
	} else {
		if err := os.MkdirAll(filepath.Dir(generateOutput), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(generateOutput, []byte(source), 0644); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", generateOutput)
	}

	if generateSave != "" {
		err := a.store.Save(&persistence.SavedScript{
			Name:        generateSave,
			Description: generateDescription,
			Source:      source,
		})
		if err != nil {
			return fmt.Errorf("failed to save script: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved script '%s' to %s\n", generateSave, a.store.Dir())
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// decodeToolCalls accepts either a bare array of calls or a generate_script
// argument object. Numbers stay json.Number so integers are exact.
func decodeToolCalls(data []byte) ([]types.ToolCallArgs, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("input is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var calls []types.ToolCallArgs
		if err := dec.Decode(&calls); err != nil {
			return nil, fmt.Errorf("failed to parse tool calls: %w", err)
		}
		return calls, nil
	}

	var args types.GenerateScriptArgs
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("failed to parse tool calls: %w", err)
	}
	return args.ToolCalls, nil
}
