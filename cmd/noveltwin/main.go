// noveltwin is a local emulation of the serial fiction platform's reader
// backend. It serves the account, chapter, payment and engagement APIs,
// an emulated payment-provider checkout, and an /admin control plane for
// tests.
package main

import (
	"log"
	"os"

	"github.com/apexnovel/readerkit/internal/api"
	"github.com/apexnovel/readerkit/internal/config"
	"github.com/apexnovel/readerkit/internal/provider"
	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/admin"
	"github.com/apexnovel/readerkit/pkg/apicore"
	pkgwebhook "github.com/apexnovel/readerkit/pkg/webhook"
)

func main() {
	srvCfg := apicore.ParseFlags("noveltwin")

	appCfg, err := config.Load(srvCfg.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if srvCfg.Port == 0 {
		srvCfg.Port = appCfg.Port
	}
	if srvCfg.WebhookURL == "" {
		srvCfg.WebhookURL = appCfg.WebhookURL
	}

	server := apicore.New(srvCfg)
	memStore := store.New()

	dispatcher := pkgwebhook.NewDispatcher(pkgwebhook.Config{
		URL:         srvCfg.WebhookURL,
		Secret:      appCfg.WebhookSecret,
		Signer:      provider.NewPayloadSigner(),
		Logger:      server.Logger,
		EventPrefix: "evt",
		AutoDeliver: srvCfg.WebhookURL != "",
	})

	checkout := provider.New(dispatcher, memStore.Clock)

	apiHandler := api.NewHandler(memStore, checkout, appCfg, server.Middleware())
	apiHandler.Routes(server.Router)

	adminHandler := admin.NewHandler(memStore, server.Middleware(), memStore.Clock)
	adminHandler.SetFlusher(dispatcher)
	adminHandler.Routes(server.Router)

	if srvCfg.SeedFile != "" {
		data, err := os.ReadFile(srvCfg.SeedFile)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}
		if err := memStore.LoadState(data); err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
		server.Logger.Info("loaded seed data", "file", srvCfg.SeedFile)
	}

	server.Logger.Info("noveltwin ready",
		"port", srvCfg.Port,
		"plans", len(appCfg.Plans),
		"webhook_url", srvCfg.WebhookURL,
	)

	if err := server.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
