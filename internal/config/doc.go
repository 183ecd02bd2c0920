// Package config loads the loglens configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/loglens/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing, empty or non-positive, use defaults
//
// # TOML Format
//
//	api_bind = "127.0.0.1:7487"
//	log_file = "~/logs/app.log"     # read a local file instead of the API
//	page_size = 100
//	debug_log = "~/.cache/loglens/debug.log"
//	log_level = "info"
//	request_timeout = "5s"
//
//	[tail]
//	max_length = 2000
//	shift_length = 500
//	poll_interval = "5s"
//
//	[highlight]
//	capacity = 5
//
// Every field is optional. Tilde expansion is applied to log_file and
// debug_log. A shift_length larger than max_length is clamped.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and unparseable durations
//
// Missing config files are NOT an error, so loglens works without any
// configuration.
package config
