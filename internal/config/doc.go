// Package config provides configuration parsing for elemtree.
//
// The configuration is stored in elemtree.json. All sections are
// optional; missing values fall back to the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "elemtree"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "elemtree"
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070
//	  },
//	  "source": {
//	    "maxDepth": 256,
//	    "s3Region": "us-east-1"
//	  },
//	  "color": true
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.ServerAddress())
package config
