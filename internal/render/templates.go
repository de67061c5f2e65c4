package render

import (
	"strings"

	"github.com/dslh/cadscript-mcp/internal/registry"
)

var planes = map[string]string{
	"xy": "xYConstructionPlane",
	"yz": "yZConstructionPlane",
	"xz": "xZConstructionPlane",
}

var axes = map[string]string{
	"x": "xConstructionAxis",
	"y": "yConstructionAxis",
	"z": "zConstructionAxis",
}

var bodyOperations = map[string]string{
	"new":       "adsk.fusion.FeatureOperations.NewBodyFeatureOperation",
	"join":      "adsk.fusion.FeatureOperations.JoinFeatureOperation",
	"cut":       "adsk.fusion.FeatureOperations.CutFeatureOperation",
	"intersect": "adsk.fusion.FeatureOperations.IntersectFeatureOperation",
}

var combineOperations = map[string]string{
	"join":      bodyOperations["join"],
	"cut":       bodyOperations["cut"],
	"intersect": bodyOperations["intersect"],
}

type exportFormat struct {
	method    string
	extension string
	// STL and OBJ options take the geometry first, the rest take the filename first.
	geometryFirst bool
}

var exportFormats = map[string]exportFormat{
	"stl":  {method: "createSTLExportOptions", extension: "stl", geometryFirst: true},
	"obj":  {method: "createOBJExportOptions", extension: "obj", geometryFirst: true},
	"step": {method: "createSTEPExportOptions", extension: "step"},
	"iges": {method: "createIGESExportOptions", extension: "igs"},
	"sat":  {method: "createSATExportOptions", extension: "sat"},
}

func exportMethods() map[string]string {
	methods := make(map[string]string, len(exportFormats))
	for name, f := range exportFormats {
		methods[name] = f.method
	}
	return methods
}

var (
	length  = paramSpec{kind: registry.KindNumber, unit: registry.UnitCentimeter}
	angle   = paramSpec{kind: registry.KindNumber, unit: registry.UnitDegree}
	index   = paramSpec{kind: registry.KindInteger}
	indices = paramSpec{kind: registry.KindIntegerList}
	flag    = paramSpec{kind: registry.KindBoolean}
	text    = paramSpec{kind: registry.KindString}
)

func enumOf(codes map[string]string) paramSpec {
	return paramSpec{kind: registry.KindEnum, enum: codes}
}

func builtinTemplates() map[string]*template {
	return map[string]*template{
		"CreateSketch": {
			params: map[string]paramSpec{"plane": enumOf(planes)},
			render: renderCreateSketch,
		},
		"DrawRectangle": {
			params: map[string]paramSpec{
				"width": length, "depth": length,
				"origin_x": length, "origin_y": length, "origin_z": length,
			},
			render: renderDrawRectangle,
		},
		"DrawCircle": {
			params: map[string]paramSpec{
				"radius":   length,
				"center_x": length, "center_y": length, "center_z": length,
			},
			render: renderDrawCircle,
		},
		"Extrude": {
			params: map[string]paramSpec{
				"height":        length,
				"profile_index": index,
				"operation":     enumOf(bodyOperations),
			},
			render: renderExtrude,
		},
		"Revolve": {
			params: map[string]paramSpec{
				"angle":         angle,
				"profile_index": index,
				"axis":          enumOf(axes),
				"operation":     enumOf(bodyOperations),
			},
			render: renderRevolve,
		},
		"LoftProfiles": {
			params: map[string]paramSpec{
				"profile_indices": indices,
				"operation":       enumOf(bodyOperations),
				"is_closed":       flag,
			},
			render: renderLoft,
		},
		"Fillet": {
			params: map[string]paramSpec{
				"radius":       length,
				"edge_indices": indices,
				"body_index":   index,
			},
			render: renderFillet,
		},
		"Chamfer": {
			params: map[string]paramSpec{
				"distance":     length,
				"edge_indices": indices,
				"body_index":   index,
			},
			render: renderChamfer,
		},
		"Shell": {
			params: map[string]paramSpec{
				"thickness":    length,
				"face_indices": indices,
				"body_index":   index,
			},
			render: renderShell,
		},
		"Combine": {
			params: map[string]paramSpec{
				"target_body_index": index,
				"tool_body_index":   index,
				"operation":         enumOf(combineOperations),
				"keep_tools":        flag,
			},
			render: renderCombine,
		},
		"ExportBody": {
			params: map[string]paramSpec{
				"filename":   text,
				"format":     enumOf(exportMethods()),
				"body_index": index,
			},
			render: renderExportBody,
		},
	}
}

const needSketch = "call CreateSketch first"

const needProfiles = "draw a closed shape (DrawRectangle, DrawCircle) first"

func renderCreateSketch(b *builder) error {
	sketch := b.bind(RoleSketch, "sketch")
	b.line("# Create a sketch on the %s plane", b.p.String("plane"))
	b.line("%s = component.sketches.add(component.%s)", sketch, b.enum("plane"))
	return nil
}

func renderDrawRectangle(b *builder) error {
	sketch, err := b.require(RoleSketch, needSketch)
	if err != nil {
		return err
	}
	x, y, z := b.num("origin_x"), b.num("origin_y"), b.num("origin_z")
	rectangle := b.bind(RoleCurve, "rectangle")
	profiles := b.bind(RoleProfiles, "profiles")

	b.line("# Draw a rectangle")
	b.line("%s = %s.sketchCurves.sketchLines.addTwoPointRectangle(", rectangle, sketch)
	b.line("    adsk.core.Point3D.create(%s, %s, %s),", x, y, z)
	b.line("    adsk.core.Point3D.create(%s + %s, %s + %s, %s)", x, b.num("width"), y, b.num("depth"), z)
	b.line(")")
	b.line("%s = %s.profiles", profiles, sketch)
	return nil
}

func renderDrawCircle(b *builder) error {
	sketch, err := b.require(RoleSketch, needSketch)
	if err != nil {
		return err
	}
	circle := b.bind(RoleCurve, "circle")
	profiles := b.bind(RoleProfiles, "profiles")

	b.line("# Draw a circle")
	b.line("%s = %s.sketchCurves.sketchCircles.addByCenterRadius(", circle, sketch)
	b.line("    adsk.core.Point3D.create(%s, %s, %s),", b.num("center_x"), b.num("center_y"), b.num("center_z"))
	b.line("    %s", b.num("radius"))
	b.line(")")
	b.line("%s = %s.profiles", profiles, sketch)
	return nil
}

func renderExtrude(b *builder) error {
	profiles, err := b.require(RoleProfiles, needProfiles)
	if err != nil {
		return err
	}
	extrude := b.bind(RoleFeature, "extrude")
	body := b.bind(RoleBody, "body")

	b.line("# Extrude a profile")
	b.line("extrudeProfile = %s.item(%s)", profiles, b.integer("profile_index"))
	b.line("extrudes = component.features.extrudeFeatures")
	b.line("extrudeInput = extrudes.createInput(extrudeProfile, %s)", b.enum("operation"))
	b.line("extrudeInput.setDistanceExtent(False, adsk.core.ValueInput.createByReal(%s))", b.num("height"))
	b.line("%s = extrudes.add(extrudeInput)", extrude)
	b.line("%s = %s.bodies.item(0)", body, extrude)
	return nil
}

func renderRevolve(b *builder) error {
	profiles, err := b.require(RoleProfiles, needProfiles)
	if err != nil {
		return err
	}
	revolve := b.bind(RoleFeature, "revolve")
	body := b.bind(RoleBody, "body")

	b.line("# Revolve a profile around the %s axis", b.p.String("axis"))
	b.line("revolveProfile = %s.item(%s)", profiles, b.integer("profile_index"))
	b.line("revolves = component.features.revolveFeatures")
	b.line("revolveInput = revolves.createInput(revolveProfile, component.%s, %s)", b.enum("axis"), b.enum("operation"))
	b.line("revolveInput.setAngleExtent(False, adsk.core.ValueInput.createByString(%s))",
		stringLiteral(b.num("angle")+" deg"))
	b.line("%s = revolves.add(revolveInput)", revolve)
	b.line("%s = %s.bodies.item(0)", body, revolve)
	return nil
}

func renderLoft(b *builder) error {
	profiles, err := b.require(RoleProfiles, needProfiles)
	if err != nil {
		return err
	}
	loft := b.bind(RoleFeature, "loft")
	body := b.bind(RoleBody, "body")

	b.line("# Loft between profiles")
	b.line("lofts = component.features.loftFeatures")
	b.line("loftInput = lofts.createInput(%s)", b.enum("operation"))
	for _, i := range b.p.Ints("profile_indices") {
		b.line("loftInput.loftSections.add(%s.item(%s))", profiles, intLiteral(i))
	}
	b.line("loftInput.isClosed = %s", b.boolean("is_closed"))
	b.line("%s = lofts.add(loftInput)", loft)
	b.line("%s = %s.bodies.item(0)", body, loft)
	return nil
}

func renderFillet(b *builder) error {
	b.line("# Fillet edges")
	if err := b.targetBody("body_index", "filletTarget"); err != nil {
		return err
	}
	fillet := b.bind(RoleFeature, "fillet")

	b.line("filletEdges = adsk.core.ObjectCollection.create()")
	b.collectItems("filletEdges", "filletTarget.edges", b.p.Ints("edge_indices"), "filletEdge", true)
	b.line("fillets = component.features.filletFeatures")
	b.line("filletInput = fillets.createInput()")
	b.line("filletInput.addConstantRadiusEdgeSet(filletEdges, adsk.core.ValueInput.createByReal(%s), True)", b.num("radius"))
	b.line("%s = fillets.add(filletInput)", fillet)
	return nil
}

func renderChamfer(b *builder) error {
	b.line("# Chamfer edges")
	if err := b.targetBody("body_index", "chamferTarget"); err != nil {
		return err
	}
	chamfer := b.bind(RoleFeature, "chamfer")

	b.line("chamferEdges = adsk.core.ObjectCollection.create()")
	b.collectItems("chamferEdges", "chamferTarget.edges", b.p.Ints("edge_indices"), "chamferEdge", true)
	b.line("chamfers = component.features.chamferFeatures")
	b.line("chamferInput = chamfers.createInput(chamferEdges, True)")
	b.line("chamferInput.setToEqualDistance(adsk.core.ValueInput.createByReal(%s))", b.num("distance"))
	b.line("%s = chamfers.add(chamferInput)", chamfer)
	return nil
}

func renderShell(b *builder) error {
	b.line("# Shell a body")
	if err := b.targetBody("body_index", "shellTarget"); err != nil {
		return err
	}
	shell := b.bind(RoleFeature, "shell")

	faces := b.p.Ints("face_indices")
	b.line("shellEntities = adsk.core.ObjectCollection.create()")
	if len(faces) == 0 {
		b.line("shellEntities.add(shellTarget)")
	} else {
		b.collectItems("shellEntities", "shellTarget.faces", faces, "", false)
	}
	b.line("shells = component.features.shellFeatures")
	b.line("shellInput = shells.createInput(shellEntities, False)")
	b.line("shellInput.insideThickness = adsk.core.ValueInput.createByReal(%s)", b.num("thickness"))
	b.line("%s = shells.add(shellInput)", shell)
	return nil
}

func renderCombine(b *builder) error {
	combine := b.bind(RoleFeature, "combine")

	b.line("# Combine bodies")
	b.line("combineTarget = component.bRepBodies.item(%s)", b.integer("target_body_index"))
	b.line("combineTools = adsk.core.ObjectCollection.create()")
	b.line("combineTools.add(component.bRepBodies.item(%s))", b.integer("tool_body_index"))
	b.line("combines = component.features.combineFeatures")
	b.line("combineInput = combines.createInput(combineTarget, combineTools)")
	b.line("combineInput.operation = %s", b.enum("operation"))
	b.line("combineInput.isKeepToolBodies = %s", b.boolean("keep_tools"))
	b.line("%s = combines.add(combineInput)", combine)
	return nil
}

func renderExportBody(b *builder) error {
	format := exportFormats[b.p.String("format")]
	b.line("# Export a body as %s", strings.ToUpper(b.p.String("format")))
	if err := b.targetBody("body_index", "exportTarget"); err != nil {
		return err
	}

	path := exportPath(b.renderer.exportDir, b.p.String("filename"), format.extension)
	b.line("exportManager = design.exportManager")
	if format.geometryFirst {
		b.line("exportOptions = exportManager.%s(exportTarget, %s)", format.method, stringLiteral(path))
	} else {
		b.line("exportOptions = exportManager.%s(%s, exportTarget)", format.method, stringLiteral(path))
	}
	b.line("exportManager.execute(exportOptions)")
	return nil
}

// exportPath joins dir and filename with a forward slash, which Fusion
// accepts on every platform, and appends the extension unless present.
func exportPath(dir, filename, extension string) string {
	if !strings.HasSuffix(strings.ToLower(filename), "."+extension) {
		filename += "." + extension
	}
	dir = strings.TrimRight(dir, `/\`)
	if dir == "" {
		return filename
	}
	return dir + "/" + filename
}
