// Package config handles configuration loading for casefile.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	storage:
//	  s3:
//	    bucket: "${CASEFILE_BUCKET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	trace_store:
//	  timeout: "15s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8460"   # Query API and metrics
//
// Artifact storage:
//
//	storage:
//	  backend: "fs"               # fs, memory, s3
//	  root: "/var/lib/casefile/artifacts"
//	  s3:
//	    bucket: "insights"
//	    region: "us-east-1"
//	    endpoint: ""              # optional, S3-compatible stores
//	    path_style: false
//
// Run registry database:
//
//	database:
//	  path: "/var/lib/casefile/registry.db"
//
// External trace store:
//
//	trace_store:
//	  base_url: "http://traces.internal:9090"
//	  timeout: "10s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Storage backend selection and its required settings
//   - Database path presence
//   - Duration format validity
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/casefile/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or start from defaults rooted in a state directory:
//
//	cfg := config.Default("/var/lib/casefile")
package config
