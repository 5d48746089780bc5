package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"gridlearn/reinforcement"
	"gridlearn/server/cell_views"
	"gridlearn/server/fastview"
	"gridlearn/server/reward_chart"
	"gridlearn/server/root_view"

	"github.com/gorilla/mux"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves a single page of views over a single websocket, plus the learning
// curve and the latest snapshot as json. The ele-update channel is consumed by one
// websocket at a time; further clients only see the initial render.
type Server struct {
	addr     string
	rootView *root_view.RootView
	// views receives snapshots destined for the root view; it is never blocked on.
	views chan *reinforcement.Snapshot

	mu   sync.RWMutex
	last *reinforcement.Snapshot
}

// NewServer builds the views and returns a server rendering initial until Run
// delivers newer snapshots.
func NewServer(
	ctx context.Context,
	addr string,
	initial *reinforcement.Snapshot,
) (*Server, error) {
	views := make(chan *reinforcement.Snapshot, 1)
	rootView, err := root_view.NewRootView(ctx, views)
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	return &Server{
		addr:     addr,
		rootView: rootView,
		views:    views,
		last:     initial,
	}, nil
}

// Run ingests snapshots until the channel closes or ctx is done. Each snapshot becomes
// the latest, and is forwarded to the views unless they are still busy with a previous one.
func (server *Server) Run(ctx context.Context, snapshots <-chan *reinforcement.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			server.setLatest(snap)
			select {
			case server.views <- snap:
			default:
			}
		}
	}
}

func (server *Server) setLatest(snap *reinforcement.Snapshot) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.last = snap
}

// Latest returns the most recently ingested snapshot.
func (server *Server) Latest() *reinforcement.Snapshot {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return server.last
}

// Router returns the server's routes.
func (server *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/curve", server.serveCurve).Methods(http.MethodGet)
	router.HandleFunc("/snapshot", server.serveSnapshot).Methods(http.MethodGet)
	return router
}

// Serve listens until ctx is done, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.Router(),
	}

	errs := make(chan error, 1)
	go func() {
		log.Printf("serving on %s", server.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client via websocket.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		log.Println(err)
		return
	}
	if err = cli.Sync(); err != nil {
		log.Println("websocket:", err)
	}
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	snap := server.Latest()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, cell_views.Convert(snap)); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

func (server *Server) serveCurve(w http.ResponseWriter, r *http.Request) {
	snap := server.Latest()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := reward_chart.Render(w, snap.Progress); err != nil {
		log.Println("curve:", err)
	}
}

func (server *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := server.Latest()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Println("snapshot:", err)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
