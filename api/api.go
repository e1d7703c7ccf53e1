package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/vireoapp/vireo/api/rest"
	"github.com/vireoapp/vireo/api/ws"
	"github.com/vireoapp/vireo/cache"
	"github.com/vireoapp/vireo/mq"
	"github.com/vireoapp/vireo/service"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
	"golang.org/x/oauth2"
)

type VireoAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewVireoAPI(
	vireoStore store.VireoStore,
	deleteUserSharesQueue mq.MessageQueue,
	vireoCache cache.VireoCache,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
	shutdownCtx context.Context,
) (*VireoAPI, error) {
	wsHub := ws.NewHub(vireoCache)
	err := wsHub.InitSubscriptions(shutdownCtx)
	if err != nil {
		log.Printf("Failed to start WS Hub subscriptions service: %v", err)
		return &VireoAPI{}, err
	}
	go wsHub.Run()

	statsBatcher := worker.NewStatsBatcher(vireoStore, 500)
	go statsBatcher.Run(shutdownCtx)

	accessBatcher := worker.NewAccessBatcher(vireoStore, 60000)
	go accessBatcher.Run(shutdownCtx)

	mqConsumer := worker.NewMQConsumer(deleteUserSharesQueue, vireoStore, vireoCache)
	go mqConsumer.Run(shutdownCtx)

	svc, err := service.NewService(
		vireoStore,
		vireoCache,
		deleteUserSharesQueue,
		statsBatcher,
		accessBatcher,
		oauthConfigs,
		jwtSecret,
	)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &VireoAPI{}, err
	}

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &VireoAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (vireoAPI *VireoAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	h := vireoAPI.restHandler

	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("GET /me", h.HandleGetMe)
	mux.HandleFunc("DELETE /me", h.HandleDeleteMe)
	mux.HandleFunc("GET /users/by-email/{email}", h.HandleFindUserByEmail)

	mux.HandleFunc("POST /encryption/setup", h.HandleSetupEncryption)
	mux.HandleFunc("GET /encryption", h.HandleGetEncryptionKeys)
	mux.HandleFunc("DELETE /encryption", h.HandleDeleteEncryption)
	mux.HandleFunc("GET /encryption/{userID}", h.HandleGetPublicKey)

	mux.HandleFunc("POST /shares", h.HandleCreateShare)
	mux.HandleFunc("GET /shares", h.HandleListShares)
	mux.HandleFunc("GET /shares/{shareID}", h.HandleGetShare)
	mux.HandleFunc("DELETE /shares/{shareID}", h.HandleRevokeShare)

	mux.HandleFunc("POST /journal", h.HandleCreateJournalEntry)
	mux.HandleFunc("GET /journal", h.HandleListJournalEntries)
	mux.HandleFunc("GET /journal/{entryID}", h.HandleGetJournalEntry)
	mux.HandleFunc("PUT /journal/{entryID}", h.HandleUpdateJournalEntry)
	mux.HandleFunc("DELETE /journal/{entryID}", h.HandleDeleteJournalEntry)

	mux.HandleFunc("POST /habits", h.HandleCreateHabit)
	mux.HandleFunc("GET /habits", h.HandleListHabits)
	mux.HandleFunc("PUT /habits/{habitID}/archive", h.HandleArchiveHabit)
	mux.HandleFunc("DELETE /habits/{habitID}", h.HandleDeleteHabit)
	mux.HandleFunc("POST /habits/{habitID}/checkins", h.HandleCheckInHabit)
	mux.HandleFunc("GET /habits/{habitID}/checkins", h.HandleListHabitCheckIns)

	mux.HandleFunc("POST /goals", h.HandleCreateGoal)
	mux.HandleFunc("GET /goals", h.HandleListGoals)
	mux.HandleFunc("GET /goals/{goalID}", h.HandleGetGoal)
	mux.HandleFunc("PUT /goals/{goalID}", h.HandleUpdateGoal)
	mux.HandleFunc("DELETE /goals/{goalID}", h.HandleDeleteGoal)

	mux.HandleFunc("GET /stats/{kind}", h.HandleGetStats)

	wsUpgrader := vireoAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		vireoAPI.wsHandler.ServeWS(wsUpgrader, w, r, vireoAPI.shutdownCtx)
	})
}

// WithMiddleware wraps the mux with CORS headers and a per-request id
// that the error envelope echoes back. With debugLog set, every
// request gets a trace line.
func WithMiddleware(next http.Handler, allowedOrigin string, debugLog bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-Id")
		if requestId == "" {
			if id, err := uuid.NewV4(); err == nil {
				requestId = id.String()
			}
		}
		w.Header().Set("X-Request-Id", requestId)

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if debugLog {
			log.Printf("DEBUG %s %s request=%s", r.Method, r.URL.Path, requestId)
		}

		next.ServeHTTP(w, r)
	})
}
