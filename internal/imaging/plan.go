package imaging

import "github.com/lumina-cms/lumina/internal/model"

// PlannedVariant is one (format, size) combination to produce.
type PlannedVariant struct {
	Format model.Format
	Size   model.SizeClass
	Config model.SizeConfig
}

// Plan expands the cartesian product of formats and the size-class table.
// Formats iterate in the given order (outer loop); size classes iterate in
// model.SizeClassOrder (inner loop), so the output order is deterministic
// regardless of map iteration. No I/O.
func Plan(formats []model.Format, sizes map[model.SizeClass]model.SizeConfig) []PlannedVariant {
	planned := make([]PlannedVariant, 0, len(formats)*len(sizes))
	for _, format := range formats {
		for _, size := range model.SizeClassOrder {
			config, ok := sizes[size]
			if !ok {
				continue
			}
			planned = append(planned, PlannedVariant{
				Format: format,
				Size:   size,
				Config: config,
			})
		}
	}
	return planned
}
