package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/spawnpool/pkg/config"
)

// ExampleDefault demonstrates the defaults of a new configuration.
func ExampleDefault() {
	cfg := config.Default()

	spark, _ := cfg.Kind("Spark")
	fmt.Printf("Registry: %s\n", cfg.Name)
	fmt.Printf("Spark target: %d\n", spark.TargetSize)
	fmt.Printf("Strategy: %s\n", cfg.Warmup.Strategy)

	// Output:
	// Registry: arena
	// Spark target: 32
	// Strategy: tick
}

// ExampleConfig_Validate shows how to validate a configuration before use.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Warmup.Strategy = config.StrategyAsync
	cfg.Pools = append(cfg.Pools, config.KindConfig{Kind: "Ember", Class: "effect", TargetSize: 12})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")
	fmt.Println("Total target:", cfg.TotalTarget())

	// Output:
	// Configuration is valid!
	// Total target: 116
}
