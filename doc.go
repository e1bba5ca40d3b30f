// FILE: lixenwraith/bridge/doc.go

// Package bridge converts value graphs between a scripting host and a native
// engine, extracts regular-expression matches as structured records, and
// provides the list, text, date and file helpers scripts reach for.
//
// Features:
//   - Closed Value union covering both sides (engine: null, bool, int, real,
//     text, bytes, timestamp, file, sequence, mapping; host: date, alias,
//     data, number)
//   - Bidirectional, category-selective recursive conversion with a depth
//     ceiling and shape preservation
//   - Regex match records with UTF-16 ranges, ordered capture groups and
//     explicit absent groups
//   - Injectable LRU cache for compiled regexes and date patterns
//   - Layered settings (defaults, TOML/JSON/YAML file, environment, CLI)
//     decoded into Options, with a fluent Builder and live reload
//   - JSON, TOML and YAML documents read into order-preserving Values
//
// Quick Start:
//
//	engine := bridge.Default()
//
//	v := bridge.Sequence(
//		bridge.Date(bridge.CalendarDate{Year: 2024, Month: time.March, Day: 1}),
//		bridge.Text("~/notes.txt"),
//	)
//	in, err := engine.ConvertInbound(v, "dates")
//
//	recs, err := engine.FindMatchRecordsInGroups(`(\d+)-(\d+)`, "12-34", "", []int{2, 1})
//
// Configuration:
//
//	engine, err := bridge.NewBuilder().
//		WithFile("bridge.toml").
//		WithEnvPrefix("BRIDGE_").
//		WithArgs(os.Args[1:]).
//		Build()
//
// Settings paths mirror the `toml` tags of Options: max_depth, cache_size,
// time_zone, inbound_types, outbound_types, match_timeout, files.home,
// files.work_dir, files.root_volume, log.level and log.format.
package bridge
