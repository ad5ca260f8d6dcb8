package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/proxy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	forum "github.com/alijnmerchant21/messagefeed/abci"
	feedcfg "github.com/alijnmerchant21/messagefeed/config"
	"github.com/alijnmerchant21/messagefeed/model"
	dbm "github.com/cometbft/cometbft-db"
	cfg "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/privval"
)

var homeDir string

func init() {
	flag.StringVar(&homeDir, "cmt-home", "", "Path to the CometBFT config directory (if empty, uses $HOME/.cometbft)")
}

func main() {
	flag.Parse()
	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.cometbft")
	}

	config := cfg.DefaultConfig()
	config.SetRoot(homeDir)
	viper.SetConfigFile(filepath.Join(homeDir, "config", "config.toml"))

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}
	if err := config.ValidateBasic(); err != nil {
		log.Fatalf("invalid configuration data: %v", err)
	}

	feedConfig, err := feedcfg.Load(homeDir)
	if err != nil {
		log.Fatalf("failed to load feed config: %v", err)
	}

	stateDB, err := dbm.NewGoLevelDB("feed-state", filepath.Join(homeDir, "data"))
	if err != nil {
		log.Fatalf("failed to create database: %v", err)
	}
	defer stateDB.Close()

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(config.LogLevel, logger, cfg.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	app, err := forum.NewFeedApp(feedConfig, stateDB, logger.With("module", "app"), forum.NewMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		log.Fatalf("failed to create FeedApp instance: %v", err)
	}
	defer app.Close()

	nodeKey, err := p2p.LoadNodeKey(config.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node key: %v", err)
	}

	pv := privval.LoadFilePV(
		config.PrivValidatorKeyFile(),
		config.PrivValidatorStateFile(),
	)

	node, err := nm.NewNode(
		config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		nm.DefaultGenesisDocProviderFunc(config),
		cfg.DefaultDBProvider,
		nm.DefaultMetricsProvider(config.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("failed to create CometBFT node: %v", err)
	}

	if err := node.Start(); err != nil {
		log.Fatalf("failed to start CometBFT node: %v", err)
	}
	defer func() {
		node.Stop()
		node.Wait()
	}()

	srv := &http.Server{
		Addr:              feedConfig.HTTPAddr,
		Handler:           newHandler(app.DB, feedConfig.FeedQueryLimit),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to stop HTTP server", "err", err)
	}

	fmt.Println("Feed application stopped")
}

func newHandler(db *model.DB, feedLimit int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		user, ok := identityParam(w, r, "pubkey")
		if !ok {
			return
		}
		messages, err := db.MessagesFrom(user)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to get messages: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, messages)
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		root, ok := identityParam(w, r, "root")
		if !ok {
			return
		}
		limit := feedLimit
		if l := r.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit parameter", http.StatusBadRequest)
				return
			}
			if n < limit {
				limit = n
			}
		}
		messages, err := db.ReadFeed(root, limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read feed: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, messages)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func identityParam(w http.ResponseWriter, r *http.Request, name string) (model.Identity, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		http.Error(w, fmt.Sprintf("missing %s parameter", name), http.StatusBadRequest)
		return model.Identity{}, false
	}
	id, err := model.ParseIdentity(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return model.Identity{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	respBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(respBytes)
}
