// Package config loads and validates recycler configuration.
//
// # Usage
//
//	cfg := config.Default()
//	if err := config.Load("recycler.yaml", cfg); err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
//	opts, err := config.PoolOptions[Frame](cfg.Pool, logger.Get(),
//		pool.WithNew(newFrame),
//	)
//
// ## Environment Variable Substitution
//
//	# recycler.yaml
//	name: ${RUN_NAME}
//	pool:
//	  initial_size: 64
//	  policy: strict
//
// # Configuration Structure
//
//   - pool: initial_size, max_size, policy
//   - workload: workers, iterations, max_held, payload_bytes, seed,
//     foreign_every, reset_every
//   - logging: level, development, encoding, output_paths
//   - metrics: enabled, address, path, linger
//   - tracing: enabled, service_name, sample_rate
//
// The CLI layers flags and RECYCLER_* environment variables over the file.
package config
