package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// SchemaCmd implements the 'schema' command: a human-readable dump of the
// registered content kinds, in registration order.
type SchemaCmd struct{}

func (s *SchemaCmd) Run(_ *Global, _ *CLI) error {
	registry, err := schema.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}

	for _, kind := range registry.Kinds() {
		fmt.Printf("%s\n", kind.Name())
		for _, def := range kind.Fields() {
			fmt.Printf("  %-14s %-12s %s%s\n",
				def.Name, def.Type, requiredMarker(def), ruleSummary(registry, def))
		}
		fmt.Println()
	}
	return nil
}

func requiredMarker(def schema.FieldDef) string {
	if def.Required {
		return "required"
	}
	return "optional"
}

func ruleSummary(registry *schema.Registry, def schema.FieldDef) string {
	var parts []string
	if def.Rule.Pattern != "" {
		parts = append(parts, fmt.Sprintf("pattern %s", def.Rule.Pattern))
	}
	if def.Rule.Enum != "" {
		if values, ok := registry.EnumValues(def.Rule.Enum); ok {
			parts = append(parts, fmt.Sprintf("enum {%s}", strings.Join(values, ", ")))
		}
	}
	if def.Rule.MinLen > 0 || def.Rule.MaxLen > 0 {
		parts = append(parts, fmt.Sprintf("length %d..%d", def.Rule.MinLen, def.Rule.MaxLen))
	}
	if def.TargetKind != "" {
		parts = append(parts, fmt.Sprintf("-> %s", def.TargetKind))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}
