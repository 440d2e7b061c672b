package commands

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/panyam/vmsim/console"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulator over a REST API",
	Long: `Expose one shared simulation session over HTTP:

  POST /api/load     {"path": "traces/kernel-build.txt"}
  POST /api/channel  {"speed": 25, "delay": 5}
  POST /api/run      {"scheme": "post", "optimize": true}
  POST /api/compare
  GET  /api/results`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := console.NewSession()
		if err := sess.SetSpeed(channelSpeed); err != nil {
			return err
		}
		if err := sess.SetDelay(channelDelay); err != nil {
			return err
		}

		r := mux.NewRouter()
		api := r.PathPrefix("/api").Subrouter()
		api.HandleFunc("/load", handleLoad(sess)).Methods("POST")
		api.HandleFunc("/channel", handleChannel(sess)).Methods("POST")
		api.HandleFunc("/run", handleRun(sess)).Methods("POST")
		api.HandleFunc("/compare", handleCompare(sess)).Methods("POST")
		api.HandleFunc("/results", handleResults(sess)).Methods("GET")

		slog.Info("serving simulator API", "addr", serverAddress)
		return http.ListenAndServe(serverAddress, withRequestLogging(r))
	},
}

// withRequestLogging logs method, path, status and duration per request.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("http request",
			"method", r.Method, "path", r.URL.Path,
			"status", m.Code, "duration", m.Duration, "bytes", m.Written)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func handleLoad(sess *console.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := sess.Load(req.Path); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		path, pages, accesses := sess.TraceInfo()
		writeJSON(w, http.StatusOK, map[string]any{
			"path": path, "pages": pages, "accesses": accesses,
		})
	}
}

func handleChannel(sess *console.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Speed *float64 `json:"speed"`
			Delay *float64 `json:"delay"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.Speed != nil {
			if err := sess.SetSpeed(*req.Speed); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if req.Delay != nil {
			if err := sess.SetDelay(*req.Delay); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, sess.Channel())
	}
}

func handleRun(sess *console.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Scheme   string `json:"scheme"`
			Optimize bool   `json:"optimize"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		metrics, err := sess.Run(req.Scheme, req.Optimize)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, metrics)
	}
}

func handleCompare(sess *console.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := sess.Compare()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func handleResults(sess *console.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sess.Results())
	}
}

func init() {
	AddCommand(serveCmd)
}
