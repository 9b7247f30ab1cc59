// Package config loads docmodel settings.
//
// Settings come from three sources, later ones overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← DOCMODEL_SECTION_SETTING_NAME
//	├─────────────────────────────┤
//	│  2. Config File             │  ← docmodel.toml / docmodel.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// The sources are read into generic maps by the loader sub-package, merged,
// and decoded strictly into Config so unknown keys are reported.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.WithFile("docmodel.toml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log := logging.New(cfg.Logging.LoggerConfig())
//
// # Live Reload
//
// Watcher re-runs Load whenever the config file changes:
//
//	w, err := config.NewWatcher("docmodel.toml")
//	go w.Run(ctx, func(cfg *config.Config, err error) { ... })
package config
