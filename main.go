package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/fruitcab/cabinet/internal/api"
	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/config"
	"github.com/fruitcab/cabinet/internal/control"
	"github.com/fruitcab/cabinet/internal/database"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/fruitcab/cabinet/internal/game"
	"github.com/fruitcab/cabinet/internal/remote"
	"github.com/fruitcab/cabinet/internal/rng"
	"github.com/fruitcab/cabinet/internal/voucher"
	"github.com/fruitcab/cabinet/internal/wallet"
	"github.com/fruitcab/cabinet/pkg/voucherhub"
)

func main() {
	fmt.Println("🍒 Fruit Cabinet")

	cfg := config.Load()
	ctx := context.Background()

	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	auditSvc := audit.New(db.DB)
	rngSvc := rng.New()

	// Reel strips and paytables
	mapping, err := game.LoadSymbolMapping(cfg.Game.SymbolMapPath)
	if err != nil {
		log.Fatalf("Failed to load symbol mapping: %v", err)
	}

	standard, warnings, err := game.LoadVariant(game.VariantStandard, cfg.Game.ReelsPath, mapping, game.FlatPaytable(), false)
	if err != nil {
		log.Fatalf("Failed to load reel strips: %v", err)
	}
	boosted, boostedWarnings, err := game.LoadVariant(game.VariantBoosted, cfg.Game.BoostedReelsPath, mapping, game.ScaledPaytable(), true)
	if err != nil {
		log.Fatalf("Failed to load boosted reel strips: %v", err)
	}

	// Unknown reel tokens are played as the fallback symbol but flagged
	// for the operator (GLI-19 §2.8.8).
	for _, w := range append(warnings, boostedWarnings...) {
		auditSvc.Log(ctx, audit.EventDataIntegrity, domain.SeverityWarning,
			fmt.Sprintf("Unmapped reel token %q on reel %d position %d", w.Token, w.Reel, w.Position),
			w, audit.WithCabinet(cfg.Game.CabinetID), audit.WithComponent("reels"))
	}

	walletSvc := wallet.New(db.DB, auditSvc, cfg.Game.Currency)
	if err := walletSvc.EnsureCabinet(ctx, cfg.Game.CabinetID); err != nil {
		log.Fatalf("Failed to initialize cabinet wallet: %v", err)
	}

	controlSvc := control.New(db.DB, auditSvc)
	if err := controlSvc.LoadState(ctx); err != nil {
		log.Fatalf("Failed to load control state: %v", err)
	}

	engine := game.New(db.DB, rngSvc, walletSvc, auditSvc, controlSvc,
		[]*game.Variant{standard, boosted}, game.Options{
			Currency:          cfg.Game.Currency,
			MinBet:            cfg.Game.MinBet,
			MaxBet:            cfg.Game.MaxBet,
			LargeWinThreshold: cfg.Game.LargeWinThreshold,
		})

	var hubClient *voucherhub.Client
	if cfg.VoucherHub.BaseURL != "" {
		hubClient = voucherhub.NewClient(&voucherhub.ClientConfig{
			BaseURL:   cfg.VoucherHub.BaseURL,
			APIKey:    cfg.VoucherHub.APIKey,
			APISecret: cfg.VoucherHub.APISecret,
			FloorCode: cfg.VoucherHub.FloorCode,
		})
	}
	voucherSvc := voucher.New(db.DB, walletSvc, auditSvc, rngSvc, hubClient, cfg.Game.VoucherExpiry)

	pairing := remote.NewPairing(cfg.Remote.PairingSecret, cfg.Remote.CodeTTL, cfg.Remote.GrantTTL, rngSvc, auditSvc)
	hub := remote.NewHub()

	handler := api.New(cfg.Game.CabinetID, walletSvc, engine, rngSvc, voucherSvc, controlSvc, pairing, hub)
	router := handler.SetupRouter()

	auditSvc.Log(ctx, audit.EventCabinetConnected, domain.SeverityInfo,
		"Cabinet backend started", nil, audit.WithCabinet(cfg.Game.CabinetID))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	fmt.Printf("Starting server on :%s...\n", cfg.Server.Port)
	log.Fatal(server.ListenAndServe())
}
