package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/recycler/pkg/config"
)

// ExampleDefault demonstrates the default configuration.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Initial Size: %d\n", cfg.Pool.InitialSize)
	fmt.Printf("Workers: %d\n", cfg.Workload.Workers)
	fmt.Printf("Metrics Path: %s\n", cfg.Metrics.Path)

	// Output:
	// Initial Size: 0
	// Workers: 4
	// Metrics Path: /metrics
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Pool.InitialSize = 128
	cfg.Pool.Policy = "strict"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cfg.Pool.Policy = "paranoid"
	fmt.Println(cfg.Validate())

	// Output:
	// validation: invalid policy: config: unknown policy
}
