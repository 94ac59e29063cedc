package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"LIBRA-backend/docs"
	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/library/circulation"
	"LIBRA-backend/internal/library/fines"
	"LIBRA-backend/internal/library/graph"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/middleware"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "libra",
		Short:         "Library borrow / return / fine backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", db.DefaultConfigPath, "設定ファイルのパス")
	root.AddCommand(serveCmd(), migrateCmd(), accountCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// services はコマンド間で共有するサービス群
type services struct {
	auth        *auth.Service
	catalog     *catalog.Service
	fines       *fines.Service
	circulation *circulation.Service
}

func open() (*db.Config, *db.DB, error) {
	cfg, err := db.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		return nil, nil, fmt.Errorf("mode は dev か release: %q", cfg.Mode)
	}
	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[INFO] mode:%s connected to DB: %s", cfg.Mode, cfg.DB.Driver)
	return cfg, conn, nil
}

func newServices(cfg *db.Config, conn *db.DB) (*services, error) {
	policy, err := circulation.PolicyFromConfig(cfg.Library)
	if err != nil {
		return nil, err
	}
	catalogSvc := catalog.NewService(conn)
	finesSvc := fines.NewService(conn)
	return &services{
		auth:        auth.NewService(conn, []byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLHours)*time.Hour),
		catalog:     catalogSvc,
		fines:       finesSvc,
		circulation: circulation.NewService(conn, catalogSvc.Store(), finesSvc, policy),
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTP(S) サーバを起動する",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret が未設定")
			}
			svcs, err := newServices(cfg, conn)
			if err != nil {
				return err
			}
			r, err := newRouter(cfg, svcs)
			if err != nil {
				return err
			}
			return run(cfg, r)
		},
	}
}

func newRouter(cfg *db.Config, svcs *services) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		docs.SwaggerInfo.BasePath = "/api/v2"
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	secret := svcs.auth.Secret()

	// /api/v2
	api := r.Group("/api/v2")
	auth.RegisterRoutes(api, svcs.auth)

	active := auth.RequireActive(svcs.auth)
	member := api.Group("", auth.RequireAuth(secret), active)
	catalog.RegisterRoutes(member, svcs.catalog)
	circulation.RegisterRoutes(member, svcs.circulation)
	fines.RegisterRoutes(member, svcs.fines)

	admin := api.Group("/admin", auth.RequireAuth(secret), active, auth.RequireRole(auth.RoleAdmin))
	catalog.RegisterAdminRoutes(admin, svcs.catalog)
	circulation.RegisterAdminRoutes(admin, svcs.circulation)
	fines.RegisterAdminRoutes(admin, svcs.fines)

	schema, err := graph.NewSchema(svcs.circulation)
	if err != nil {
		return nil, fmt.Errorf("graphql schema: %w", err)
	}
	graph.RegisterRoutes(api.Group("", auth.OptionalAuth(secret), active), schema)

	return r, nil
}

func run(cfg *db.Config, r *gin.Engine) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			// 証明書は config/tls/<mode>/ 配下
			certFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://%s", cfg.Listen)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[WARN] certificate not set, listening on http://%s", cfg.Listen)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
