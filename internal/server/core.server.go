package server

import (
	"context"
	"log"

	"gl-service/internal/config"
	hrest "gl-service/internal/handler/rest"
	publisher "gl-service/internal/pub"
	"gl-service/internal/repository"
	"gl-service/internal/service"
	"gl-service/internal/usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewGLServer(cfg config.AppConfig) {
	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Event publisher ---
	events := publisher.NewJournalEventPublisher(cfg.KafkaBrokers)

	// --- Repositories ---
	accountRepo := repository.NewAccountRepo(dbpool)
	bankRepo := repository.NewBankAccountRepo(dbpool)
	sequenceRepo := repository.NewSequenceRepo(dbpool)
	journalRepo := repository.NewJournalRepo(dbpool)
	subledgerRepo := repository.NewSubledgerRepo(dbpool)
	revaluationRepo := repository.NewRevaluationRepo(dbpool)
	postingRepo := repository.NewPostingRepo(dbpool, journalRepo, subledgerRepo, sequenceRepo, revaluationRepo)

	// --- Usecases ---
	journalUC := usecase.NewJournalUsecase(journalRepo, accountRepo, postingRepo, rdb, events, logger)
	postingUC := usecase.NewPostingUsecase(accountRepo, bankRepo, postingRepo, events, rdb, logger, cfg.FunctionalCurrency)
	revaluationUC := usecase.NewRevaluationUsecase(accountRepo, bankRepo, journalRepo, revaluationRepo, postingRepo, events, rdb, logger, cfg.FunctionalCurrency)
	bankUC := usecase.NewBankAccountUsecase(bankRepo, rdb, logger)
	subledgerUC := usecase.NewSubledgerUsecase(subledgerRepo)

	// --- Seed chart of accounts and bank accounts (non-blocking) ---
	seeder := service.NewSystemSeeder(accountRepo, bankRepo, dbpool, logger)
	go func() {
		if err := seeder.SeedSystem(context.Background()); err != nil {
			logger.Warn("system seeding failed", zap.Error(err))
		}
	}()

	// --- REST handler ---
	handler := hrest.NewGLRestHandler(journalUC, postingUC, revaluationUC, bankUC, subledgerUC)

	log.Printf("GL posting service listening on %s", cfg.HTTPAddr)
	handler.Start(cfg.HTTPAddr)
}
