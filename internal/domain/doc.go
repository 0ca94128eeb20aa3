// Package domain models the per-country coffee footprint dataset.
//
// # Data Sources
//
// Three independently published datasets feed the join:
//
//	Consumption — FAOSTAT crops & livestock products bulk API (QCL domain,
//	element 5401, item 6501). One row per country for the reference year.
//	The quantity unit varies by source vintage: early exports report in
//	units of 1000 tonnes ("consumption_1000t"), later ones in tonnes
//	("consumption_t") or kilograms ("consumption_kg"). The quantity column
//	name encodes the unit; see [MassUnitForColumn].
//
//	Population — World Bank SP.POP.TOTL indicator, paginated JSON. One row
//	per country per year, with an ISO-3166 alpha-3 code alongside the
//	display name. Filtered to the reference year before joining.
//
//	Emission/water factors — a single global row (product "Coffee") giving
//	kgCO2e emitted and litres of water consumed per kilogram of coffee,
//	from the Poore & Nemecek food supply-chain study as republished by
//	Our World in Data. The factor is planet-wide, not per-country, and is
//	broadcast onto every country row during the join.
//
// # Country Naming
//
// The three sources spell country names differently ("Viet Nam" vs
// "Vietnam", "Bolivia (Plurinational State of)" vs "Bolivia"). Names are
// reconciled against an ISO-3166 registry before joining; a name the
// registry cannot resolve passes through unchanged with a warning, which
// means that row will not match rows from the other sources. The single
// emission/water row is tagged with the [GlobalCountry] sentinel since it
// represents a planet-wide average.
//
// # Metrics
//
// Seven metrics are derived per country. Totals multiply consumption in
// kilograms by the global factors; per-capita values divide by population
// and are nil whenever population is missing or zero — division never
// raises and never silently produces zero.
//
// # Emission Stage Breakdown
//
// Supply-chain stage shares (land use, farming, processing, transport,
// retail, packaging, losses) come from the Our World in Data food
// emissions supply-chain breakdown and are applied uniformly to every
// country's total. This is a global approximation; the shares live in a
// configurable table ([StageShares]) rather than in arithmetic.
package domain
