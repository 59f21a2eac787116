package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhive.org/internal/auth"
	"taskhive.org/internal/catalog"
	"taskhive.org/internal/events"
	"taskhive.org/internal/httpapi"
	"taskhive.org/internal/obs"
	"taskhive.org/internal/store/pg"
	"taskhive.org/internal/task"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		db        *sql.DB
		taskStore task.Store
		userStore auth.UserStore
		catStore  catalog.Store
	)
	if dsn := os.Getenv("TASKHIVE_PG_DSN"); dsn != "" {
		var err error
		db, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		taskStore = pg.NewTaskStore(db)
		userStore = pg.NewUserStore(db)
		catStore = pg.NewCatalogStore(db)
	} else {
		// In-memory fallback for local development. The user store owns
		// the task cascade because there is no foreign key to do it.
		mem := task.NewInMemory()
		users := auth.NewInMemoryUsers()
		users.OnDelete(func(userID string) {
			_ = mem.DeleteByOwner(context.Background(), userID)
		})
		taskStore = mem
		userStore = users
		catStore = catalog.NewInMemory()
	}

	authSvc, err := auth.NewService(userStore)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	catSvc, err := catalog.NewService(catStore)
	if err != nil {
		log.Fatalf("catalog service: %v", err)
	}

	api := httpapi.New(
		httpapi.ReadyProbe{DB: db},
		version,
		task.NewRepository(taskStore),
		catSvc,
		authSvc,
		events.New(),
	)

	addr := os.Getenv("TASKHIVE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// SSE connections stay open; WriteTimeout would cut them off.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting taskhive-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
