package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	echoapi "github.com/eduquest/academy/apps/api/echo"
	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/core/course"
	"github.com/eduquest/academy/core/portal"
	"github.com/eduquest/academy/core/registration"
	emailsvc "github.com/eduquest/academy/services/email"
	logsvc "github.com/eduquest/academy/services/logger"
	"github.com/eduquest/academy/storage/database"
	inmemdb "github.com/eduquest/academy/storage/database/inmem"
	sqlxrepos "github.com/eduquest/academy/storage/database/sqlx"
	"github.com/eduquest/academy/storage/sessionstore"
)

const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	out, closeLog := logsvc.NewWriter(conf.Log)
	defer closeLog() //nolint:errcheck

	logger := logsvc.NewPortalLogger(
		log.New(out, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	if conf.SecretKeyGenerated {
		logger.Warn("no secret key configured: sessions will not survive a restart")
	}

	ctx := context.Background()

	// set up storage
	repo, closeDB, err := setUpStorage(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer closeDB()

	// set up sessions
	var redisClient *redis.Client
	if conf.Session.Store == sessionstore.StoreRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err = redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		defer redisClient.Close() //nolint:errcheck
	}
	sessStore, err := sessionstore.New(conf, redisClient)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	catalog := course.DefaultCatalog()
	regSvc := registration.NewService(mailSvc, conf.Email.RecipientAddress(), conf.Email.Timeout, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)
	expvar.NewString("email").Set(mailSvc.Name())

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server, err := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			AccountSvc:      account.NewService(repo),
			Guard:           account.NewGuard(repo),
			Assembler:       portal.NewAssembler(repo, catalog),
			Catalog:         catalog,
			RegistrationSvc: regSvc,
			Sessions:        sessStore,
			Validate:        validate,
			Translator:      translator,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("creating server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage returns the account repository selected by conf.Storage and a func releasing it.
func setUpStorage(ctx context.Context, conf *core.Config, logger core.Logger) (account.Repository, func(), error) {
	switch conf.Storage {
	case storageMemory, "":
		repo := inmemdb.NewAccountRepository(inmemdb.Open())
		if err := inmemdb.Seed(ctx, repo); err != nil {
			return nil, nil, errors.Wrap(err, "seeding sample accounts")
		}
		logger.Info("using in-memory storage with sample accounts")
		return repo, func() {}, nil

	case storagePostgres:
		db, err := setUpDB(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}
		return sqlxrepos.NewAccountRepository(db), closeDB, nil
	}
	return nil, nil, errors.Errorf("unknown storage %q", conf.Storage)
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
