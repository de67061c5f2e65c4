package script

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/render"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

func newAssembler(t *testing.T) *Assembler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	a, err := New(reg, render.New(render.WithExportDir("/exports")))
	require.NoError(t, err)
	return a
}

func requireCallError(t *testing.T, err error, kind validation.Kind, index int, tool string) *validation.ValidationError {
	t.Helper()
	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, kind, ve.Kind)
	require.NotNil(t, ve.CallIndex)
	assert.Equal(t, index, *ve.CallIndex)
	assert.Equal(t, tool, ve.Tool)
	return ve
}

func TestAssembleSketchRectangleExtrude(t *testing.T) {
	out, err := newAssembler(t).Generate([]ToolCall{
		{Tool: "CreateSketch", Parameters: map[string]interface{}{"plane": "xy"}},
		{Tool: "DrawRectangle", Parameters: map[string]interface{}{"width": 10, "depth": 10}},
		{Tool: "Extrude", Parameters: map[string]interface{}{"height": 5}},
	})
	require.NoError(t, err)

	sketch := strings.Index(out, "sketch = component.sketches.add(component.xYConstructionPlane)")
	rectangle := strings.Index(out, "rectangle = sketch.sketchCurves.sketchLines.addTwoPointRectangle(")
	extrude := strings.Index(out, "extrudeProfile = profiles.item(0)")
	require.True(t, sketch > 0, "sketch fragment missing")
	assert.Less(t, sketch, rectangle)
	assert.Less(t, rectangle, extrude)

	assert.Equal(t, 1, strings.Count(out, "import adsk.core, adsk.fusion, traceback"))
	assert.Equal(t, 1, strings.Count(out, "def run(context):"))
	assert.Equal(t, 1, strings.Count(out, "Operation completed successfully"))
	assert.Equal(t, 1, strings.Count(out, "except:"))
	assert.True(t, strings.HasPrefix(out, "import adsk.core"))
	assert.True(t, strings.HasSuffix(out, "traceback.format_exc()))\n"))
	assert.Contains(t, out, `'Failed:\n{}'`)
}

func TestAssembleIndentsBody(t *testing.T) {
	out, err := newAssembler(t).Generate([]ToolCall{
		{Tool: "CreateSketch"},
		{Tool: "DrawCircle", Parameters: map[string]interface{}{"radius": 2}},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "\n        sketch = component.sketches.add(component.xYConstructionPlane)\n\n        # Draw a circle\n")
	assert.Contains(t, out, "\n            2\n        )\n")
}

func TestAssembleMissingContext(t *testing.T) {
	_, err := newAssembler(t).Generate([]ToolCall{
		{Tool: "Extrude", Parameters: map[string]interface{}{"height": 5}},
	})
	ve := requireCallError(t, err, validation.KindMissingContext, 0, "Extrude")
	assert.Contains(t, ve.Error(), "call 0 (Extrude)")
}

func TestAssembleUnknownParameter(t *testing.T) {
	_, err := newAssembler(t).Generate([]ToolCall{
		{Tool: "Fillet", Parameters: map[string]interface{}{"radius": 0.5, "unknownParam": 1}},
	})
	ve := requireCallError(t, err, validation.KindUnknownParameter, 0, "Fillet")
	assert.Equal(t, "unknownParam", ve.Details["parameter"])
}

func TestAssembleFailsFast(t *testing.T) {
	_, err := newAssembler(t).Assemble([]ToolCall{
		{Tool: "CreateSketch"},
		{Tool: "DrawCircle", Parameters: map[string]interface{}{"radius": 1}},
		{Tool: "Sweep"},
		{Tool: "Extrude"},
	})
	ve := requireCallError(t, err, validation.KindUnknownTool, 2, "Sweep")
	assert.Equal(t, "Sweep", ve.Details["tool"])
}

func TestAssembleReportsFirstFailure(t *testing.T) {
	_, err := newAssembler(t).Assemble([]ToolCall{
		{Tool: "CreateSketch"},
		{Tool: "DrawRectangle", Parameters: map[string]interface{}{"width": 1}},
		{Tool: "DrawRectangle", Parameters: map[string]interface{}{"width": "wide", "depth": 1}},
	})
	ve := requireCallError(t, err, validation.KindMissingRequiredParameter, 1, "DrawRectangle")
	assert.Equal(t, "depth", ve.Details["parameter"])
}

func TestAssembleRejectsOutOfRangeIndices(t *testing.T) {
	a := newAssembler(t)

	_, err := a.Generate([]ToolCall{
		{Tool: "CreateSketch"},
		{Tool: "DrawCircle", Parameters: map[string]interface{}{"radius": 1}},
		{Tool: "LoftProfiles", Parameters: map[string]interface{}{"profile_indices": []interface{}{}}},
	})
	ve := requireCallError(t, err, validation.KindTypeMismatch, 2, "LoftProfiles")
	assert.Equal(t, "profile_indices", ve.Details["parameter"])

	_, err = a.Generate([]ToolCall{
		{Tool: "Fillet", Parameters: map[string]interface{}{"radius": 0.5, "body_index": -3}},
	})
	ve = requireCallError(t, err, validation.KindTypeMismatch, 0, "Fillet")
	assert.Equal(t, "integer >= -1", ve.Details["expected"])
}

func TestAssembleEmpty(t *testing.T) {
	doc, err := newAssembler(t).Assemble(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Fragments)
	assert.Equal(t, preamble+"\n"+epilogue, doc.String())
}

func TestAssembleCollectsSymbols(t *testing.T) {
	doc, err := newAssembler(t).Assemble([]ToolCall{
		{Tool: "CreateSketch"},
		{Tool: "DrawCircle", Parameters: map[string]interface{}{"radius": 1}},
		{Tool: "Revolve", Parameters: map[string]interface{}{"angle": 180}},
		{Tool: "Shell", Parameters: map[string]interface{}{"thickness": 0.1}},
		{Tool: "ExportBody", Parameters: map[string]interface{}{"filename": "cup"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []render.Symbol{
		{Name: "sketch", Role: render.RoleSketch},
		{Name: "circle", Role: render.RoleCurve},
		{Name: "profiles", Role: render.RoleProfiles},
		{Name: "revolve", Role: render.RoleFeature},
		{Name: "body", Role: render.RoleBody},
		{Name: "shell", Role: render.RoleFeature},
	}, doc.Symbols)
	assert.Contains(t, doc.String(), `"/exports/cup.stl"`)
}

func TestNewRejectsUncoveredRegistry(t *testing.T) {
	reg, err := registry.New([]registry.ToolDefinition{{Name: "Sweep"}})
	require.NoError(t, err)

	_, err = New(reg, render.New())
	kind, ok := validation.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.KindNoTemplate, kind)
}

// TestPropertyAssembleIsDeterministic generates random call sequences, valid
// or not, and checks that assembling twice gives identical results.
func TestPropertyAssembleIsDeterministic(t *testing.T) {
	a := newAssembler(t)

	calls := []ToolCall{
		{Tool: "CreateSketch", Parameters: map[string]interface{}{"plane": "xz"}},
		{Tool: "DrawRectangle", Parameters: map[string]interface{}{"width": 3, "depth": 4, "origin_y": 1.5}},
		{Tool: "DrawCircle", Parameters: map[string]interface{}{"radius": 2}},
		{Tool: "Extrude", Parameters: map[string]interface{}{"height": 1, "operation": "join"}},
		{Tool: "Revolve", Parameters: map[string]interface{}{"axis": "y"}},
		{Tool: "Fillet", Parameters: map[string]interface{}{"radius": 0.1, "edge_indices": []interface{}{0, 2}}},
		{Tool: "Chamfer", Parameters: map[string]interface{}{"distance": 0.1}},
		{Tool: "Combine", Parameters: map[string]interface{}{"target_body_index": 0, "tool_body_index": 1}},
		{Tool: "ExportBody", Parameters: map[string]interface{}{"filename": "part", "format": "obj"}},
		{Tool: "Extrude", Parameters: map[string]interface{}{"hieght": 1}},
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("identical input gives identical output", prop.ForAll(
		func(picks []int) bool {
			seq := make([]ToolCall, len(picks))
			for i, n := range picks {
				seq[i] = calls[n]
			}
			first, err1 := a.Generate(seq)
			second, err2 := a.Generate(seq)
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil {
				return err1.Error() == err2.Error() && first == "" && second == ""
			}
			return first == second && strings.Count(first, "def run(context):") == 1
		},
		gen.SliceOf(gen.IntRange(0, len(calls)-1)),
	))

	properties.TestingRun(t)
}
