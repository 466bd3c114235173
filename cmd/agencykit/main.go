// Command agencykit runs the studio site with a plain built-in theme.
// All configuration comes from environment variables; see SiteConfig
// for the full list. Real deployments embed the library and supply
// their own templ views instead.
package main

import (
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/kestrelworks/agencykit"
)

func main() {
	var cfg agencykit.SiteConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parsing config: %v", err)
	}

	app := agencykit.New(cfg, agencykit.ViewFuncs{})
	app.Views = defaultViews(app.Config)
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
