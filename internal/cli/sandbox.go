package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/idilsaglam/records/internal/model"
	"github.com/idilsaglam/records/internal/sandbox"
	"github.com/idilsaglam/records/internal/store/jsonstore"
	"github.com/idilsaglam/records/internal/ui"
)

func (s *session) sandbox(ctx context.Context, args []string) int {
	fs := subFlags("sandbox")
	addr := fs.String("addr", ":8080", "listen address")
	seed := fs.String("seed", "", "JSON file with initial records")
	data := fs.String("data", "", "persist records to this JSON file")
	idField := fs.String("id-field", "id", `identity field to emit, "id" or "_id"`)
	base := fs.String("base-path", "/api", "route prefix")
	lat := fs.Duration("latency", 0, "delay added to every request")
	failStatus := fs.Int("fail-status", 0, "answer every request with this status")
	token := fs.String("token", "", "require this bearer token")
	if err := fs.Parse(args); err != nil {
		ui.Fail("sandbox: " + err.Error())
		return 2
	}
	if *failStatus != 0 && (*failStatus < 400 || *failStatus > 599) {
		ui.Fail(fmt.Sprintf("sandbox: --fail-status must be 4xx or 5xx, got %d", *failStatus))
		return 2
	}

	storeOpts := []sandbox.StoreOption{sandbox.WithIDField(*idField)}
	var initial []model.Record
	if *data != "" {
		recs, err := jsonstore.Load(*data)
		if err != nil {
			ui.Fail("sandbox: " + err.Error())
			return 1
		}
		initial = recs
		path := *data
		storeOpts = append(storeOpts, sandbox.WithPersist(func(recs []model.Record) error {
			return jsonstore.Save(path, recs)
		}))
	}
	// a seed only fills an empty data file
	if *seed != "" && len(initial) == 0 {
		recs, err := sandbox.LoadSeed(*seed)
		if err != nil {
			ui.Fail("sandbox: " + err.Error())
			return 1
		}
		initial = recs
	}
	store := sandbox.NewStore(storeOpts...)
	store.Seed(initial)

	srv := &http.Server{
		Addr: *addr,
		Handler: sandbox.NewRouter(store, sandbox.Options{
			BasePath:   *base,
			Latency:    *lat,
			FailStatus: *failStatus,
			Token:      *token,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("sandbox listening", "addr", *addr, "base", *base, "records", len(store.List()))
	if err := s.env.Serve(ctx, srv); err != nil {
		ui.Fail("sandbox: " + err.Error())
		return 1
	}
	return 0
}

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
