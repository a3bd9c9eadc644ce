// Package conf loads layered application configuration and merges it into
// a single immutable tree addressed by dot-separated paths.
//
// Layers merge with fixed precedence, lowest to highest: built-in
// defaults, the base YAML file, the profile-specific YAML file, .env
// files, and finally prefixed process environment variables. Maps merge
// recursively; scalars and lists from a higher layer replace the lower
// value wholesale.
//
//	mgr, err := conf.New(
//		conf.WithPrefix("APP"),
//		conf.WithFile("config/application.yaml"),
//		conf.WithDefaults(map[string]any{"server": map[string]any{"port": 8080}}),
//	)
//
// Values are read with typed accessors or bound into structs:
//
//	port, err := mgr.GetInt("server.port")
//
//	type ServerConfig struct {
//		Host string `conf:"host" default:"0.0.0.0"`
//		Port int    `conf:"port"`
//	}
//	cfg, err := conf.Bind[ServerConfig](mgr.Tree(), "server")
//
// The active profile resolves from, in order, the WithProfile option, the
// <PREFIX>_PROFILE environment variable, the "profile" config path, and
// finally "dev". An environment variable APP_SERVER_PORT=9090 overrides
// the server.port path from any file layer.
package conf
