package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"scenario-assessment-service/internal/config"
	"scenario-assessment-service/internal/domain"
	"scenario-assessment-service/internal/engine"
	"scenario-assessment-service/internal/infra/memory"
	pgstore "scenario-assessment-service/internal/infra/postgres"
	redisstore "scenario-assessment-service/internal/infra/redis"
	transport "scenario-assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalogs())
	if pool != nil {
		loader = pgstore.NewCatalogLoader(pool)
	}
	catalogTTL := config.Duration(cfg.Catalog.TTL, 10*time.Minute)
	catalogs := memory.NewCatalogRepository(loader, catalogTTL)

	rewardSource := memory.NewStaticRewardSource(sampleRewardPlans())
	var rewards engine.RewardRepository = rewardSource
	if redisClient != nil {
		rewardTTL := config.Duration(cfg.Rewards.TTL, 10*time.Minute)
		rewards = redisstore.NewRewardRepository(redisClient, rewardSource, rewardTTL)
	}

	var sessions engine.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var completions engine.CompletionStore = memory.NewCompletionLog()
	if pool != nil {
		completions = pgstore.NewCompletionStore(pool)
	}

	timing := engine.Timing{
		RevealDelay:      config.Duration(cfg.Timing.RevealDelay, engine.DefaultRevealDelay),
		FinalSettleDelay: config.Duration(cfg.Timing.FinalSettleDelay, engine.DefaultFinalSettleDelay),
	}
	fallback := domain.RewardPlan{
		CoinsPerStage: cfg.Rewards.DefaultCoinsPerStage,
		TotalCoins:    cfg.Rewards.DefaultTotalCoins,
		TotalXP:       cfg.Rewards.DefaultTotalXP,
	}

	service := engine.NewService(sessions, catalogs, rewards, completions, timing, fallback)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting assessment service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCatalogs ships two of the scenario games as built-in data; production
// deployments load catalogs from Postgres instead.
func sampleCatalogs() map[string]domain.Catalog {
	catalogs := make(map[string]domain.Catalog)

	dataSharing, err := domain.NewCatalog("data-sharing-awareness", []domain.Stage{
		{
			ID:     "s1",
			Prompt: "A quiz app asks for your full contact list before it starts. What do you do?",
			Options: []domain.Option{
				{ID: "o1", Label: "Allow it, every app needs contacts", Reflection: "Apps should only get data they need for their core feature.", Correct: false},
				{ID: "o2", Label: "Deny the request and keep playing", Reflection: "Right. A quiz works fine without your contacts.", Correct: true},
				{ID: "o3", Label: "Uninstall and reinstall to make the prompt go away", Reflection: "Reinstalling does not change what the app requests.", Correct: false},
			},
			Reward: 5,
		},
		{
			ID:     "s2",
			Prompt: "A friend wants to post a photo of your school ID. How do you respond?",
			Options: []domain.Option{
				{ID: "o1", Label: "Ask them not to; it shows personal details", Reflection: "Exactly. IDs carry details that enable impersonation.", Correct: true},
				{ID: "o2", Label: "Let them, it is just an ID", Reflection: "An ID photo exposes your name, school and number.", Correct: false},
				{ID: "o3", Label: "Ask them to tag you so you get credit", Reflection: "Tagging spreads the exposure further.", Correct: false},
			},
			Reward: 5,
		},
		{
			ID:     "s3",
			Prompt: "A website offers free coins if you enter your parent's card number. What now?",
			Options: []domain.Option{
				{ID: "o1", Label: "Enter it, free coins are free", Reflection: "Free rewards for card numbers are a classic scam shape.", Correct: false},
				{ID: "o2", Label: "Close the site and tell an adult", Reflection: "Right call. Report it and never share card details.", Correct: true},
				{ID: "o3", Label: "Enter a made-up number to test it", Reflection: "Engaging at all keeps you on a scam page.", Correct: false},
			},
			Reward: 5,
		},
	})
	if err != nil {
		log.Fatalf("sample catalog: %v", err)
	}
	catalogs[dataSharing.GameID] = dataSharing

	fraudCheckpoint, err := domain.NewCatalog("fraud-safety-checkpoint", []domain.Stage{
		{
			ID:     "s1",
			Prompt: "You get an SMS saying you won a prize and must pay a release fee. What do you do?",
			Options: []domain.Option{
				{ID: "o1", Label: "Pay the small fee to claim the prize", Reflection: "Legitimate prizes never require an upfront fee.", Correct: false},
				{ID: "o2", Label: "Delete and report the message", Reflection: "Correct. Fee-first prizes are advance-fee fraud.", Correct: true},
				{ID: "o3", Label: "Reply asking for proof", Reflection: "Replying confirms your number is live to the scammer.", Correct: false},
			},
			Reward: 5,
		},
		{
			ID:     "s2",
			Prompt: "A caller claims to be your bank and asks for your one-time passcode.",
			Options: []domain.Option{
				{ID: "o1", Label: "Read the code, the caller sounds official", Reflection: "Banks never ask for passcodes on a call.", Correct: false},
				{ID: "o2", Label: "Hang up and call the bank's official line", Reflection: "Exactly. Verify through the number on your card.", Correct: true},
				{ID: "o3", Label: "Ask them to call back later", Reflection: "A later call is still the same scammer.", Correct: false},
			},
			Reward: 5,
		},
	})
	if err != nil {
		log.Fatalf("sample catalog: %v", err)
	}
	catalogs[fraudCheckpoint.GameID] = fraudCheckpoint

	return catalogs
}

// sampleRewardPlans mirrors the per-game entries of the CSR reward catalog.
func sampleRewardPlans() map[string]domain.RewardPlan {
	return map[string]domain.RewardPlan{
		"data-sharing-awareness":  {CoinsPerStage: 5, TotalCoins: 15, TotalXP: 30},
		"fraud-safety-checkpoint": {CoinsPerStage: 5, TotalCoins: 10, TotalXP: 20},
	}
}
