// Package httpapi serves the wallet, payment and escrow operations to a
// browser UI over JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/internal/config"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/payment"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// ErrInvalidDependencies reports a router built without its collaborators.
var ErrInvalidDependencies = errors.New("invalid http api dependencies")

// HorizonAPI is the read side of the ledger API the handlers use directly.
type HorizonAPI interface {
	payment.TransactionReader
	payment.AccountLoader
}

// Dependencies are the collaborators of the HTTP layer.
type Dependencies struct {
	Network    stellar.Network
	Horizon    HorizonAPI
	Payments   *payment.Service
	Escrows    ledger.Ledger
	Simulator  *ledger.Simulator
	NewManager ManagerFactory
	Logger     *zap.Logger
	Now        func() time.Time
}

func (deps Dependencies) validate() error {
	switch {
	case deps.Horizon == nil:
		return fmt.Errorf("%w: horizon client is nil", ErrInvalidDependencies)
	case deps.Payments == nil:
		return fmt.Errorf("%w: payment service is nil", ErrInvalidDependencies)
	case deps.Escrows == nil:
		return fmt.Errorf("%w: escrow ledger is nil", ErrInvalidDependencies)
	case deps.Simulator == nil:
		return fmt.Errorf("%w: escrow simulator is nil", ErrInvalidDependencies)
	case deps.NewManager == nil:
		return fmt.Errorf("%w: wallet manager factory is nil", ErrInvalidDependencies)
	}
	return nil
}

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, cfg config.ServerConfig, deps Dependencies) error {
	router, err := NewRouter(cfg, deps)
	if err != nil {
		return err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("trustlanced listening", zap.String("addr", cfg.ListenAddr), zap.String("network", string(deps.Network.Name)))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine with every route installed.
func NewRouter(cfg config.ServerConfig, deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	handler := &httpHandler{
		logger:    deps.Logger,
		network:   deps.Network,
		horizon:   deps.Horizon,
		payments:  deps.Payments,
		escrows:   deps.Escrows,
		simulator: deps.Simulator,
		nowFn:     deps.Now,
	}
	sessions := newSessionRegistry([]byte(cfg.SessionSigningKey), cfg.SessionCookieName, cfg.SessionTTL, cfg.SessionSecure, deps.NewManager, deps.Now)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/network", handler.handleNetwork)
	api.GET("/transactions/:hash", handler.handleTransactionStatus)
	api.GET("/accounts/:id", handler.handleAccount)
	api.GET("/accounts/:id/transactions", handler.handleAccountTransactions)

	session := api.Group("")
	session.Use(sessions.middleware())
	session.GET("/session", handler.handleSession)
	session.POST("/session/connect", handler.handleConnect)
	session.POST("/session/disconnect", handler.handleDisconnect)
	session.POST("/session/balance", handler.handleRefreshBalance)
	session.DELETE("/session/error", handler.handleClearError)

	session.POST("/payments", handler.handlePayment)

	session.GET("/escrows", handler.handleListEscrows)
	session.POST("/escrows", handler.handleCreateEscrow)
	session.GET("/escrows/:id", handler.handleShowEscrow)
	session.DELETE("/escrows/:id", handler.handleDeleteEscrow)
	session.PUT("/escrows/:id/transaction", handler.handleSetTransaction)
	session.POST("/escrows/:id/fund", handler.handleEscrowAction(actionFund))
	session.POST("/escrows/:id/release", handler.handleEscrowAction(actionRelease))
	session.POST("/escrows/:id/refund", handler.handleEscrowAction(actionRefund))
	session.POST("/escrows/:id/dispute", handler.handleEscrowAction(actionDispute))
	session.POST("/escrows/:id/revision", handler.handleEscrowAction(actionRevision))

	return router, nil
}

type httpHandler struct {
	logger    *zap.Logger
	network   stellar.Network
	horizon   HorizonAPI
	payments  *payment.Service
	escrows   ledger.Ledger
	simulator *ledger.Simulator
	nowFn     func() time.Time
}

func (handler *httpHandler) handleNetwork(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"network": newNetworkPayload(handler.network)})
}
