// Package config provides configuration management for spawnpool.
//
// # Key Features
//
// - Config: one structure for pools, warm-up, simulation and observability
// - Defaults for a typical arena level via Default()
// - Environment variable substitution with ${VAR_NAME} syntax
// - Validation that returns structured config errors
//
// # Usage
//
// ## Loading a file
//
//	cfg, err := config.Load("arena.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Example file
//
//	name: arena
//	pools:
//	  - kind: Spark
//	    class: effect
//	    target_size: 32
//	    lifetime: 250ms
//	  - kind: Grunt
//	    class: enemy
//	    target_size: ${GRUNT_POOL}
//	warmup:
//	  strategy: async
//	  interval: 2ms
//
// Unset keys keep the values from Default(). A target_size of 0 is accepted:
// the registry logs it and serves that kind through on-demand construction.
package config
