// Command giftstorage serves the gift-storage frame: search for a user,
// preview the gift, sign the rent transaction, poll for settlement.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/frameforge/giftstorage/internal/chain"
	"github.com/frameforge/giftstorage/internal/config"
	"github.com/frameforge/giftstorage/internal/frame"
	"github.com/frameforge/giftstorage/internal/identity"
	"github.com/frameforge/giftstorage/internal/logging"
	"github.com/frameforge/giftstorage/internal/payment"
	"github.com/frameforge/giftstorage/internal/render"
	"github.com/frameforge/giftstorage/internal/server"
	"github.com/frameforge/giftstorage/internal/xmtp"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	log := logging.New("giftstorage")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("configuration invalid")
		os.Exit(1)
	}
	logging.SetLevel(cfg.LogLevel)

	if cfg.Identity.APIKey == "" {
		log.Warn("IDENTITY_API_KEY not set; user lookups will fail upstream")
	}
	if cfg.Payment.ProjectID == "" {
		log.Warn("PAYMENT_PROJECT_ID not set; payment sessions will fail upstream")
	}

	rpc, err := chain.NewClient(chain.Config{
		RPCURL:  cfg.Chain.RPCURL,
		Timeout: cfg.Chain.Timeout,
	})
	if err != nil {
		log.WithError(err).Error("chain client setup failed")
		os.Exit(1)
	}
	registry := chain.NewStorageRegistry(rpc, cfg.Chain.StorageRegistry)

	provider := payment.NewClient(payment.ClientConfig{
		BaseURL:   cfg.Payment.BaseURL,
		ProjectID: cfg.Payment.ProjectID,
		Timeout:   cfg.Payment.Timeout,
	})
	coordinator := payment.NewCoordinator(provider, registry, payment.CoordinatorConfig{
		SettlementChainID: cfg.Payment.SettlementChainID,
		RegistryAddress:   cfg.Chain.StorageRegistry,
	}, log)

	resolver := identity.NewClient(identity.ClientConfig{
		BaseURL: cfg.Identity.BaseURL,
		APIKey:  cfg.Identity.APIKey,
		Timeout: cfg.Identity.Timeout,
	})

	verifier := xmtp.NewValidatorClient(xmtp.ValidatorConfig{
		BaseURL: cfg.Validator.BaseURL,
		Timeout: cfg.Validator.Timeout,
	})

	handler := frame.NewHandler(resolver, coordinator, render.NewSVG(), frame.Config{
		BasePath:        cfg.BasePath,
		PublicURL:       cfg.PublicURL,
		PaymentChainID:  cfg.Payment.PaymentChainID,
		ExplorerBaseURL: cfg.Payment.ExplorerBaseURL,
	}, log)

	srv := server.New(cfg, handler, verifier, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	case sig := <-stop:
		log.WithFields(map[string]interface{}{"signal": sig.String()}).Info("shutdown requested")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("shutdown failed")
			os.Exit(1)
		}
	}
}
