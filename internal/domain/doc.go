// Package domain models Philippine earthquake catalogue data and the static
// settings of the explorer dashboard.
//
// # Data Sources
//
// Three files are read once at startup:
//
//   - Province polygons (GeoJSON or shapefile), one feature per second-level
//     administrative division. The name key attribute (default "adm2_en") is
//     the province identifier used for both the spatial join and rendering.
//   - Active fault lines (GEM Global Active Faults, GeoJSON or shapefile). Only
//     features whose "catalog_name" mentions the target country are kept.
//   - An event CSV merged from the PHIVOLCS earthquake catalogue and PSA census
//     tables: one row per earthquake with coordinates, magnitude, depth, date,
//     location label, province/region/island-group tags, and four census
//     population columns ("2020", "2015", "2010", "2000").
//
// # CSV Conventions
//
// Empty cells are missing values. Numeric cells that fail to parse are also
// missing (NaN for floats) rather than zero, so a missing magnitude never
// drags an average down. Population cells may carry thousands separators:
//
//	"1,234,567"  →  1234567
//
// Dates arrive in several layouts depending on the catalogue export; see
// [ParseDate]. Rows whose date cannot be parsed are kept for the spatial join
// but never reach a year-based aggregate.
//
// # Magnitude Buckets
//
// The map slider selects one of nine fixed ranges. Index 0 is "All"; indices
// 1..8 cover whole-magnitude bands (1.0–1.9 up to 8.0–8.9) and filter the
// per-province average magnitude with a closed range:
//
//	Micro 1.0–1.9 | Minor 2.0–2.9 | Minor 3.0–3.9 | Light 4.0–4.9
//	Moderate 5.0–5.9 | Strong 6.0–6.9 | Major 7.0–7.9 | Great 8.0–8.9
//
// # Province Names
//
// Polygon name keys and CSV province tags come from different agencies.
// [NameMatcher] decides whether they are compared byte-for-byte or after
// canonicalisation (diacritics, case, whitespace).
package domain
