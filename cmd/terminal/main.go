package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nexuslab/nexus-terminal/internal/insight"
	"github.com/nexuslab/nexus-terminal/internal/logger"
	"github.com/nexuslab/nexus-terminal/internal/market"
	engine "github.com/nexuslab/nexus-terminal/internal/terminal/engine/engine_v1"
)

func main() {
	configPath := flag.String("config", "./config/terminal.yaml", "path to the engine config")
	universePath := flag.String("universe", "./config/universe.yaml", "path to the instrument universe")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	// .env carries the optional GEMINI_API_KEY; missing file is fine.
	_ = godotenv.Load()

	newLogger := logger.NewLogger
	if *verbose {
		newLogger = logger.NewDevelopmentLogger
	}

	appLogger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	config, err := os.ReadFile(*configPath)
	if err != nil {
		appLogger.Fatal("Failed to read config", zap.String("path", *configPath), zap.Error(err))
	}

	universe, err := market.LoadUniverse(*universePath)
	if err != nil {
		appLogger.Fatal("Failed to load universe", zap.String("path", *universePath), zap.Error(err))
	}

	terminal := engine.NewTerminalEngineV1(appLogger)
	if err := terminal.Initialize(string(config)); err != nil {
		appLogger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer func() { _ = terminal.Shutdown() }()

	if err := terminal.SetInstruments(universe.Instruments); err != nil {
		appLogger.Fatal("Failed to install universe", zap.Error(err))
	}

	feed := market.NewSimulatedFeed()

	provider := insight.NewGeminiProvider(os.Getenv("GEMINI_API_KEY"), appLogger)
	dispatcher := insight.NewDispatcher(provider, appLogger, insight.DefaultRequestTimeout)

	engineConfig, err := engine.ParseConfig(string(config))
	if err != nil {
		appLogger.Fatal("Failed to parse config", zap.Error(err))
	}

	tickInterval := time.Duration(engineConfig.TickInterval)

	appLogger.Info("Terminal running",
		zap.Int("instruments", len(universe.Instruments)),
		zap.Duration("tick_interval", tickInterval),
		zap.Bool("insights_enabled", provider.Enabled()))

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// Refresh insight commentary far less often than quotes.
	insightTicker := time.NewTicker(5 * time.Minute)
	defer insightTicker.Stop()

	// Periodic account summary.
	statusTicker := time.NewTicker(30 * time.Second)
	defer statusTicker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case now := <-ticker.C:
			prices := make(map[string]float64)
			for _, instrument := range terminal.Instruments() {
				prices[instrument.Symbol] = feed.NextPrice(instrument.Symbol, instrument.Price)
			}

			if err := terminal.Tick(prices, now); err != nil {
				appLogger.Error("Tick failed", zap.Error(err))
			}

		case <-insightTicker.C:
			if !provider.Enabled() {
				continue
			}

			snapshot := terminal.Portfolio()
			for _, instrument := range terminal.Instruments() {
				view := insight.InstrumentSnapshot{
					Symbol:        instrument.Symbol,
					Name:          instrument.Name,
					Price:         instrument.Price,
					ChangePercent: instrument.ChangePercent,
					History:       instrument.History,
				}
				if position, ok := snapshot.Positions[instrument.Symbol]; ok {
					view.Position = &position
				}

				dispatcher.Request(view)
			}

		case <-statusTicker.C:
			portfolio := terminal.Portfolio()
			appLogger.Info("Account status",
				zap.Float64("balance", portfolio.Balance),
				zap.Float64("total_value", terminal.TotalValue()),
				zap.Int("positions", len(portfolio.Positions)))

		case sig := <-stop:
			appLogger.Info("Shutting down", zap.String("signal", sig.String()))

			return
		}
	}
}
