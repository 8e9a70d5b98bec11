package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/canopy-network/rollup-pool/controller"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

const (
	colon = ":"

	SoftwareVersion = "0.1.0-alpha"
	ContentType     = "Content-Type"
	ApplicationJSON = "application/json; charset=utf-8"
	localhost       = "localhost"
)

// Server represents a pool node RPC server with configuration options.
type Server struct {
	// pool node controller
	controller *controller.Controller

	// pool node configuration
	config lib.Config

	logger lib.LoggerI
}

// NewServer constructs and returns a new pool node RPC server
func NewServer(controller *controller.Controller, config lib.Config, logger lib.LoggerI) *Server {
	return &Server{
		controller: controller,
		config:     config,
		logger:     logger.WithModule("rpc"),
	}
}

// Start initializes the query and admin RPC servers
func (s *Server) Start() {
	go s.startRPC(createRouter(s), s.config.RPCPort)
	go s.startRPC(createAdminRouter(s), s.config.AdminPort)
}

// startRPC starts an RPC server with the provided router and port
func (s *Server) startRPC(router *httprouter.Router, port string) {
	s.logger.Infof("Starting RPC server at 0.0.0.0:%s", port)
	s.logger.Fatal((&http.Server{
		Addr:    colon + port,
		Handler: s.handler(router),
	}).ListenAndServe().Error())
}

// handler() wraps a router with the CORS policy and the request timeout
func (s *Server) handler(router *httprouter.Router) http.Handler {
	// Create CORS policy
	cor := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS", "POST"},
	})
	// Create a default timeout for HTTP requests
	timeout := time.Duration(s.config.TimeoutS) * time.Second
	return cor.Handler(http.TimeoutHandler(router, timeout, ErrServerTimeout().Error()))
}

// logsHandler writes the pool node logfile, newest line first
func logsHandler(s *Server) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Construct the full file path to the log file
		filePath := filepath.Join(s.config.DataDirPath, lib.LogDirectory, lib.LogFileName)
		// Read the entire contents of the log file and split by newlines
		f, _ := os.ReadFile(filePath)
		split := bytes.Split(f, []byte("\n"))
		// Iterate over the lines in reverse order
		var flipped []byte
		for i := len(split) - 1; i >= 0; i-- {
			flipped = append(append(flipped, split[i]...), []byte("\n")...)
		}
		if _, err := w.Write(flipped); err != nil {
			s.logger.Error(err.Error())
		}
	}
}

// logHandler serves as a middleware that logs incoming RPC calls for debugging purposes.
type logHandler struct {
	path string
	h    httprouter.Handle
	log  lib.LoggerI
}

// Handle() calls the wrapped handler and logs the path with the time it took
func (h logHandler) Handle(resp http.ResponseWriter, req *http.Request, p httprouter.Params) {
	start := time.Now()
	h.h(resp, req, p)
	h.log.Debugf("%s %s handled in %s", req.Method, h.path, time.Since(start))
}

// unmarshal reads request body and unmarshals it into ptr
func (s *Server) unmarshal(w http.ResponseWriter, r *http.Request, ptr interface{}) bool {
	defer func() { _ = r.Body.Close() }()
	bz, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestBytes))
	if err != nil {
		write(w, ErrInvalidParams(err), http.StatusBadRequest)
		return false
	}
	if err = json.Unmarshal(bz, ptr); err != nil {
		write(w, ErrInvalidParams(err), http.StatusBadRequest)
		return false
	}
	return true
}

// write marshaled payload to w
func write(w http.ResponseWriter, payload interface{}, code int) {
	w.Header().Set(ContentType, ApplicationJSON)
	w.WriteHeader(code)
	// Marshal and indent the payload
	bz, _ := json.MarshalIndent(payload, "", "  ")
	_, _ = w.Write(bz)
}
