// Йоу, чат! Сьогодні ми будемо розбирати як запустити клієнт рельєфу!
// Це ліцензія AGPL - означає що наш код має бути відкритим, і всі модифікації теж.
// Це важливо для спільноти, щоб всі могли вчитися і покращувати код!

// Пакет main - це точка входу нашої програми, звідси все починається!
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	// toml - крутий формат для конфігів, як JSON але читабельніший
	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	// zap - мегашвидкий логер, набагато швидший за fmt.Printf
	"go.uber.org/zap"

	"FlowyTerrain/game"
)

var (
	// isDebug - в дебаг режимі буде більше логів
	isDebug = flag.Bool("debug", false, "Enable debug log output")
	// configPath - звідки читати налаштування
	configPath = flag.String("config", "config.toml", "Path to the config file")
	// serveAddress - якщо задано, запускаємо тільки сервер вокселів
	serveAddress = flag.String("serve", "", "Run the voxel server on this address instead of the client")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	if *isDebug {
		logger = unwrap(zap.NewDevelopment())
	} else {
		logger = unwrap(zap.NewProduction())
	}
	defer func(logger *zap.Logger) {
		// stderr на деяких системах не синхронізується, це не страшно
		_ = logger.Sync()
	}(logger)

	logger.Info("Terrain start")
	printBuildInfo(logger)
	defer logger.Info("Terrain exit")

	config, err := readConfig(*configPath)
	if err != nil {
		logger.Error("Read config fail", zap.Error(err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.MetricsAddress != "" {
		go serveMetrics(logger, config.MetricsAddress)
	}

	g, err := game.NewGame(logger, config)
	if err != nil {
		logger.Error("Init game fail", zap.Error(err))
		return
	}

	if *serveAddress != "" {
		serve(ctx, logger, *serveAddress, g)
		return
	}
	if err := g.Run(ctx); err != nil {
		logger.Error("Game stopped with error", zap.Error(err))
	}
}

// serve запускає сервер вокселів на websocket
func serve(ctx context.Context, logger *zap.Logger, address string, g *game.Game) {
	mux := http.NewServeMux()
	mux.Handle("/terrain", g.NewServer())
	srv := &http.Server{Addr: address, Handler: mux}
	context.AfterFunc(ctx, func() { srv.Close() })

	logger.Info("Start listening", zap.String("address", address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server listening error", zap.Error(err))
	}
}

func serveMetrics(logger *zap.Logger, address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Serving metrics", zap.String("address", address))
	if err := http.ListenAndServe(address, mux); err != nil {
		logger.Error("Metrics listening error", zap.Error(err))
	}
}

// printBuildInfo виводить інформацію про збірку
func printBuildInfo(logger *zap.Logger) {
	binaryInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string)
	for _, v := range binaryInfo.Settings {
		settings[v.Key] = v.Value
	}
	logger.Debug("Build info", zap.Any("settings", settings))
}

// readConfig читає конфіг з файлу поверх значень за замовчуванням.
// Якщо файлу немає - працюємо на замовчуваннях.
// Якщо знайдемо невідомі налаштування - повернемо помилку.
func readConfig(path string) (game.Config, error) {
	c := game.DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return game.Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var err errUnknownConfig
		for _, key := range undecoded {
			err = append(err, key.String())
		}
		return game.Config{}, err
	}
	return c, nil
}

// errUnknownConfig - це список невідомих налаштувань
type errUnknownConfig []string

func (e errUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}

// unwrap - якщо є помилка, відразу панікуємо
func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
