// Package config provides configuration structures for observable
// registries and the subjects built on them.
//
// Configuration only exists during initialization. Constructors resolve
// named references (such as the telemetry observer) and copy what they need
// into runtime components; the config values do not persist beyond that.
//
// # Defaults and Merging
//
// Every type has a Default constructor and a Merge method. Loaded configs
// merge over defaults:
//
//	cfg := config.DefaultConfig()
//	var loaded config.Config
//	json.Unmarshal(data, &loaded)
//	cfg.Merge(&loaded)
//
// Merge semantics by field type:
//
//   - Strings: Merge if source is non-empty
//   - Integers: Merge if source is greater than zero
//   - Pointers: Merge if source is non-nil
//   - Nested configs: Recursive merge
//
// LoadConfig performs the read, parse and merge in one step.
package config
