// Package config provides configuration parsing for the signal workshop.
//
// The configuration is stored in workshop.json (or workshop.yaml) at the
// project root. Every field is optional; missing values fall back to the
// defaults returned by New.
//
// # Configuration File Structure
//
//	{
//	  "runtime": {
//	    "maxEffectRuns": 10000,
//	    "strictEffects": "warn"
//	  },
//	  "analytics": {
//	    "enableLogging": true,
//	    "batchSize": 5,
//	    "autoSaveInterval": "10s",
//	    "statsInterval": "5s"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "inspect": {
//	    "addr": "localhost:7070"
//	  },
//	  "telemetry": {
//	    "metrics": true,
//	    "tracing": false,
//	    "namespace": "workshop"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Batch size:", cfg.Analytics.BatchSize)
package config
