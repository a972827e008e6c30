// Package config loads pushroute project files.
//
// A project file declares the route table, the default route, click
// triggers and server settings. JSON, TOML and YAML are accepted; Load looks
// for pushroute.json, pushroute.toml, pushroute.yaml and pushroute.yml in
// that order.
//
// # Configuration File Structure
//
//	{
//	  "name": "example",
//	  "port": 3000,
//	  "default": "/home",
//	  "routes": [
//	    {"path": "/about", "content": "<div>About me</div>"},
//	    {"path": "/home", "file": "pages/home.html"},
//	    {"path": "/contact", "title": "Contact", "source": "s3://site/contact.html"}
//	  ],
//	  "triggers": [
//	    {"id": "about", "path": "/about"},
//	    {"id": "home", "path": "/home"}
//	  ],
//	  "s3": {"region": "eu-west-1"},
//	  "server": {"shutdownTimeout": "10s"},
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// Validate reports every inconsistency at once as coded errors from
// internal/errors, each pointing at the offending field.
package config
