package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vireoapp/vireo/api"
	"github.com/vireoapp/vireo/cache/redis"
	"github.com/vireoapp/vireo/mq/sqsmq"
	"github.com/vireoapp/vireo/store/dynamo"
	"golang.org/x/oauth2"
)

const (
	SQSDeleteUserSharesQueue = "DeleteUserSharesQueue"
	DefaultDynamoDBTable     = "Vireo"
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	tableName := os.Getenv("TABLE_NAME")
	if tableName == "" {
		tableName = DefaultDynamoDBTable
	}

	vireoStore, err := dynamo.NewDynamoVireoStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), tableName)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	deleteUserSharesQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSDeleteUserSharesQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	vireoCache, err := redis.NewRedisVireoCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	redirectURL := os.Getenv("OAUTH_REDIRECT_URL")

	var oauthConfigs = map[string]*oauth2.Config{
		"github": {
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectURL:  redirectURL,
		},
		"google": {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  redirectURL,
		},
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	vireoApi, err := api.NewVireoAPI(vireoStore, deleteUserSharesQueue, vireoCache, oauthConfigs, jwtSecret, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create vireo api: %v", err)
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:3000"
	}

	debugLog := strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")

	mux := http.NewServeMux()
	vireoApi.RegisterRoutes(mux, corsOrigin)

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, api.WithMiddleware(mux, corsOrigin, debugLog)))
}
