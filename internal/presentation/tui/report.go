package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/profile"
)

// InspectReport builds the markdown summary of a measured model.
func InspectReport(name string, box domain.BoundingBox) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	fmt.Fprintf(&b, "**Triangles:** %d\n\n", box.TriangleCount)

	if box.Empty() {
		b.WriteString("The model has no geometry.\n")
		return b.String()
	}

	cx, cy, cz := box.Center()
	b.WriteString("| Axis | Min | Max | Size |\n")
	b.WriteString("|------|-----|-----|------|\n")
	fmt.Fprintf(&b, "| X | %.3f | %.3f | %.3f |\n", box.MinX, box.MaxX, box.Width())
	fmt.Fprintf(&b, "| Y | %.3f | %.3f | %.3f |\n", box.MinY, box.MaxY, box.Depth())
	fmt.Fprintf(&b, "| Z | %.3f | %.3f | %.3f |\n", box.MinZ, box.MaxZ, box.Height())
	fmt.Fprintf(&b, "\n**Center:** (%.3f, %.3f, %.3f)\n", cx, cy, cz)
	return b.String()
}

// ProfilesReport builds the markdown table of the print profiles.
func ProfilesReport(profiles []profile.Profile) string {
	var b strings.Builder
	b.WriteString("# Print profiles\n\n")
	b.WriteString("| Name | Layer (mm) | Infill | Bed | Nozzle | Supports | Description |\n")
	b.WriteString("|------|------------|--------|-----|--------|----------|-------------|\n")
	for _, p := range profiles {
		s := p.Settings
		fmt.Fprintf(&b, "| %s | %.2f | %d%% | %d | %d | %t | %s |\n",
			p.Name, s.LayerHeight, s.InfillPercent, s.BedTempC, s.NozzleTempC, s.UseSupports, p.Description)
	}
	return b.String()
}
