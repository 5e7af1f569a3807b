// Package api serves the HTTP control API and websocket status feed of a
// running show.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/matt-g-everett/ledtimeline/timeline"
)

// A Runner executes fn on the goroutine that owns the animation tree.
// *pulse.Timer is a Runner.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Command is a control request, sent as JSON over the websocket or built
// from an HTTP request.
type Command struct {
	Op   string  `json:"op"`
	At   string  `json:"at,omitempty"`
	Rate float64 `json:"rate,omitempty"`
}

// Api controls a show over HTTP.
type Api struct {
	show    timeline.Animation
	runner  Runner
	hub     *Hub
	static  string
	timeout time.Duration
}

// NewApi creates an Api for show. static, when set, is a directory served at /.
func NewApi(show timeline.Animation, runner Runner, static string) *Api {
	a := new(Api)
	a.show = show
	a.runner = runner
	a.static = static
	a.timeout = 2 * time.Second
	a.hub = NewHub(a.execute)
	return a
}

// Hub returns the websocket hub.
func (a *Api) Hub() *Hub {
	return a.hub
}

// Handler returns the API's routes.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/play", a.handleOp("play"))
	mux.HandleFunc("/api/pause", a.handleOp("pause"))
	mux.HandleFunc("/api/stop", a.handleOp("stop"))
	mux.HandleFunc("/api/jump", a.handleJump)
	mux.HandleFunc("/api/rate", a.handleRate)
	mux.HandleFunc("/api/ws", a.hub.handle)
	if a.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(a.static)))
	}
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (a *Api) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go a.hub.Run(ctx)

	errs := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", addr, "static", a.static)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		return nil
	}
}

// Publish sends the show's snapshot to websocket clients. It must run on the
// Runner's goroutine, typically from pulse.Timer.OnPulse.
func (a *Api) Publish() {
	a.hub.Broadcast(a.show.Snapshot())
}

// execute applies cmd on the Runner's goroutine and returns the resulting
// snapshot.
func (a *Api) execute(ctx context.Context, cmd Command) (timeline.Snapshot, error) {
	apply, err := a.command(cmd)
	if err != nil {
		return timeline.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	var snap timeline.Snapshot
	err = a.runner.Do(ctx, func() {
		apply()
		snap = a.show.Snapshot()
	})
	if err != nil {
		return timeline.Snapshot{}, err
	}
	if cmd.Op != "status" {
		slog.Info("show command", "op", cmd.Op, "status", snap.Status, "elapsed", int64(snap.Elapsed))
	}
	return snap, nil
}

// errBadCommand marks a request the client must fix.
var errBadCommand = errors.New("bad command")

func (a *Api) command(cmd Command) (func(), error) {
	switch cmd.Op {
	case "status":
		return func() {}, nil
	case "play":
		return a.show.Play, nil
	case "pause":
		return a.show.Pause, nil
	case "stop":
		return a.show.Stop, nil
	case "jump":
		d, err := time.ParseDuration(cmd.At)
		if err != nil {
			return nil, fmt.Errorf("%w: jump: %v", errBadCommand, err)
		}
		return func() { a.show.JumpTo(d) }, nil
	case "rate":
		if math.IsNaN(cmd.Rate) || math.IsInf(cmd.Rate, 0) {
			return nil, fmt.Errorf("%w: rate must be finite", errBadCommand)
		}
		r := cmd.Rate
		return func() { a.show.SetRate(r) }, nil
	}
	return nil, fmt.Errorf("%w: unknown op %q", errBadCommand, cmd.Op)
}

func (a *Api) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.respond(w, r, Command{Op: "status"})
}

func (a *Api) handleOp(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		a.respond(w, r, Command{Op: op})
	}
}

func (a *Api) handleJump(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.respond(w, r, Command{Op: "jump", At: r.URL.Query().Get("t")})
}

func (a *Api) handleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rate, err := strconv.ParseFloat(r.URL.Query().Get("r"), 64)
	if err != nil {
		http.Error(w, "rate: "+err.Error(), http.StatusBadRequest)
		return
	}
	a.respond(w, r, Command{Op: "rate", Rate: rate})
}

func (a *Api) respond(w http.ResponseWriter, r *http.Request, cmd Command) {
	snap, err := a.execute(r.Context(), cmd)
	switch {
	case errors.Is(err, errBadCommand):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		slog.Warn("show command failed", "op", cmd.Op, "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
