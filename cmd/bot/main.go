package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	_ "modernc.org/sqlite"

	"github.com/fardannozami/scoopquest/internal/app/notify"
	"github.com/fardannozami/scoopquest/internal/app/reward"
	"github.com/fardannozami/scoopquest/internal/app/usecase"
	"github.com/fardannozami/scoopquest/internal/config"
	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/internal/infra/catalog"
	"github.com/fardannozami/scoopquest/internal/infra/kafka"
	"github.com/fardannozami/scoopquest/internal/infra/redis"
	"github.com/fardannozami/scoopquest/internal/infra/sqlite"
	"github.com/fardannozami/scoopquest/internal/infra/wa"
	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

func main() {
	// 1. Config & logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	if err := errors.NewSentryReporter(cfg.SentryDSN); err != nil {
		log.Warnf("Sentry disabled: %v", err)
	}
	defer errors.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}
	// WAL mode and busy timeout avoid "database is locked" with whatsmeow on the same file.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.SQLitePath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.InitSchema(ctx, db); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	// 3. Quest catalog
	catalogRepo := sqlite.NewCatalogRepository(db)
	if cfg.CatalogPath != "" {
		quests, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("Failed to load quest catalog: %v", err)
		}
		n, err := catalogRepo.SeedQuests(ctx, quests)
		if err != nil {
			log.Fatalf("Failed to seed quest catalog: %v", err)
		}
		log.Infof("Quest catalog: %d of %d quests newly published", n, len(quests))
	}
	questCatalog, err := catalog.NewCache(catalogRepo, cfg.CatalogCacheSize)
	if err != nil {
		log.Fatalf("Failed to create catalog cache: %v", err)
	}

	// 4. Reward and activity sinks
	var issuances domain.IssuanceStore = sqlite.NewIssuanceRepository(db)
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		issuances = redis.NewIssuanceStore(client)
	}

	// The local log always records, it backs #history.
	localActivity := sqlite.NewActivityLog(db)
	activityLogs := []domain.ActivityLog{localActivity}
	if cfg.KafkaBrokers != "" {
		producer, err := kafka.NewSyncProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("Failed to connect to kafka: %v", err)
		}
		kafkaLog := kafka.NewActivityLog(producer, cfg.KafkaActivityTopic)
		defer kafkaLog.Close()
		activityLogs = append(activityLogs, kafkaLog)
	}

	// 5. WhatsApp service
	waService := wa.NewService(cfg.SQLitePath, wa.ReplyOptions{
		DelayMin:   cfg.ReplyDelayMin(),
		DelayMax:   cfg.ReplyDelayMax(),
		ShowTyping: cfg.ShowTyping,
	})

	// 6. Use cases
	points := sqlite.NewPointsLedger(db)
	badges := sqlite.NewBadgeStore(db)
	profiles := sqlite.NewProfileRepository(db)
	engine := usecase.Engine{
		Catalog:     questCatalog,
		Store:       sqlite.NewUserQuestRepository(db),
		Dispatcher:  reward.NewDispatcher(badges, points, issuances, nil),
		Notifier:    notify.NewAdapter(activityLogs, cfg.NotifyTimeout, wa.NewNotifier(waService)),
		MaxAttempts: cfg.ProgressMaxAttempts,
	}
	handleMessageUC := usecase.NewHandleMessageUsecase(usecase.Commands{
		Join:        usecase.NewJoinQuestUsecase(engine),
		Abandon:     usecase.NewAbandonQuestUsecase(engine),
		Report:      usecase.NewReportActivityUsecase(engine),
		Quests:      usecase.NewGetUserQuestsUsecase(questCatalog, engine.Store),
		Available:   usecase.NewListAvailableQuestsUsecase(questCatalog, nil),
		Leaderboard: usecase.NewGetLeaderboardUsecase(points, profiles, nil),
		Me:          usecase.NewGetProfileUsecase(points, badges, profiles),
		History:     usecase.NewGetHistoryUsecase(localActivity),
		Profiles:    profiles,
	})
	retryUC := usecase.NewRetryRewardsUsecase(engine, cfg.RewardRetryInterval, cfg.RewardRetryBatch)
	identities := sqlite.NewIdentityResolver(db)

	// 7. Message handler
	waService.SetMessageHandler(func(ctx context.Context, client *whatsmeow.Client, evt *events.Message) {
		if cfg.GroupID != "" && evt.Info.Chat.String() != cfg.GroupID {
			return
		}
		if evt.Info.IsFromMe {
			return
		}

		// Resolve LID to phone number for consistent user tracking
		senderJID := evt.Info.Sender
		userID := senderJID.User
		if senderJID.Server == types.HiddenUserServer || (senderJID.Server == types.DefaultUserServer && len(senderJID.User) > 15) {
			userID = identities.ResolveLIDToPhone(ctx, senderJID.User)
		}

		pushName := evt.Info.PushName
		if pushName == "" {
			pushName = "Unknown"
		}

		var (
			response string
			err      error
		)
		if loc := evt.Message.GetLocationMessage(); loc != nil {
			log.Debugf("Location from %s (%s)", pushName, userID)
			response, err = handleMessageUC.HandleLocation(ctx, userID, loc.GetDegreesLatitude(), loc.GetDegreesLongitude())
		} else {
			msg := evt.Message.GetConversation()
			if msg == "" {
				msg = evt.Message.GetExtendedTextMessage().GetText()
			}
			if msg == "" {
				return
			}
			log.Debugf("Message from %s (%s): %s", pushName, userID, msg)
			response, err = handleMessageUC.Execute(ctx, userID, pushName, msg)
		}
		if err != nil {
			log.Errorf("Error handling message: %v", errors.WrapAndReport(err, "handle message"))
		}
		if response == "" {
			return
		}

		if err := waService.SendText(ctx, evt.Info.Chat, response); err != nil {
			log.Errorf("Failed to send response: %v", err)
		}
	})

	// 8. Initialize client, then connect or log in
	if err := waService.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize WhatsApp service: %v", err)
	}

	if !waService.IsLoggedIn() {
		if cfg.BotPhone != "" {
			if err := waService.Connect(); err != nil {
				log.Fatalf("Failed to connect for pairing: %v", err)
			}
			log.Infof("Not logged in. Attempting to pair with phone: %s", cfg.BotPhone)
			code, err := waService.Pair(ctx, cfg.BotPhone)
			if err != nil {
				log.Errorf("Failed to generate pair code: %v", err)
			} else {
				log.Info("==================================================")
				log.Infof("PAIR CODE: %s", code)
				log.Info("==================================================")
				log.Info("Please verify this code on your WhatsApp (Linked Devices > Link with phone number)")
			}
		} else {
			log.Info("Not logged in. BOT_PHONE not set. Printing QR...")
			go waService.PrintQR(ctx)
		}
	} else {
		if err := waService.Connect(); err != nil {
			log.Fatalf("Failed to connect: %v", err)
		}
		log.Info("Client is already logged in.")
	}

	// 9. Reward retry sweeper
	if cfg.RewardRetryInterval > 0 {
		go runRewardRetry(ctx, retryUC, cfg.RewardRetryInterval)
	}

	log.Info("Bot is running... Press Ctrl+C to exit.")
	<-ctx.Done()

	log.Info("Shutting down...")
	waService.Disconnect()
}

func runRewardRetry(ctx context.Context, uc *usecase.RetryRewardsUsecase, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.Execute(ctx); err != nil && ctx.Err() == nil {
				log.Warnf("reward retry sweep: %v", err)
			}
		}
	}
}
