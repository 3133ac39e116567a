package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/messagely/backend/internal/auth/http"
	authservice "github.com/messagely/backend/internal/auth/service"
	"github.com/messagely/backend/internal/common/clock"
	"github.com/messagely/backend/internal/common/config"
	commoncrypto "github.com/messagely/backend/internal/common/crypto"
	"github.com/messagely/backend/internal/common/db"
	commonhttp "github.com/messagely/backend/internal/common/http"
	"github.com/messagely/backend/internal/common/logger"
	srv "github.com/messagely/backend/internal/common/server"
	messagerepo "github.com/messagely/backend/internal/message/repository"
	"github.com/messagely/backend/internal/token"
	userhttp "github.com/messagely/backend/internal/user/http"
	userrepo "github.com/messagely/backend/internal/user/repository"
	userservice "github.com/messagely/backend/internal/user/service"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "messagely", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	clk := clock.NewRealClock()
	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost)
	tokens := token.NewService(cfg.JWTSecret, clk)

	users := userservice.NewService(userrepo.NewPgRepository(pool, log), hasher, clk, log)
	messages := messagerepo.NewPgRepository(pool)
	auth := authservice.NewAuthService(users, tokens, log)

	usersHandler := userhttp.NewHandler(users, messages, tokens, cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/api/auth/", authhttp.NewHandler(auth, cfg, log))
	mux.Handle("/api/users", usersHandler)
	mux.Handle("/api/users/", usersHandler)
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/metrics", promhttp.Handler())

	finalHandler := commonhttp.BuildBaseHandler(log, mux)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, finalHandler)

	srv.StartWithGracefulShutdown(server, log, "messagely")
}
