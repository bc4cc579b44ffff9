// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command movebcd serves Move VM bytecode decoding over HTTP.
//
// @title movebcd API
// @version 1.0
// @description Decodes compiled Move modules and scripts submitted over HTTP.
// @host localhost:8085
// @BasePath /
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/saferwall/movebc/internal/cache"
	"github.com/saferwall/movebc/log"

	_ "github.com/saferwall/movebc/cmd/movebcd/docs"
)

func main() {
	configPath := flag.String("config", "", "path to a movebcd.yaml config file")
	flag.Parse()

	logger := log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelInfo)))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Errorf("loading config: %v", err)
		os.Exit(1)
	}

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Errorf("opening cache: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	s := &server{cfg: cfg, cache: store}

	r := mux.NewRouter()
	r.HandleFunc("/v1/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/decode", s.handleDecode).Methods(http.MethodPost)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	handler := withRequestID(logger, r)

	logger.Infof("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
