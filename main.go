package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/repo"
	"github.com/KNICEX/overheat-monitor/internal/schedule"
	"github.com/KNICEX/overheat-monitor/internal/service/alert"
	"github.com/KNICEX/overheat-monitor/internal/service/llm/gemini"
	"github.com/KNICEX/overheat-monitor/internal/service/monitor"
	"github.com/KNICEX/overheat-monitor/internal/service/notification"
	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
	signalsvc "github.com/KNICEX/overheat-monitor/internal/service/signal"
	binancesignal "github.com/KNICEX/overheat-monitor/internal/service/signal/binance"
	"github.com/KNICEX/overheat-monitor/internal/service/signal/coingecko"
	"github.com/KNICEX/overheat-monitor/internal/service/signal/glassnode"
	"github.com/KNICEX/overheat-monitor/internal/web"
	"github.com/KNICEX/overheat-monitor/ioc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	alertRepo := repo.NewAlertStateRepo(db)
	histRepo := repo.NewMetricHistoryRepo(db)

	engineCfg := scoring.DefaultConfig()
	if err := viper.UnmarshalKey("monitor.scoring", &engineCfg); err != nil {
		panic(err)
	}
	engine, err := scoring.NewEngine(engineCfg)
	if err != nil {
		panic(err)
	}

	alertCfg := alert.Config{
		Cooldown: 3 * time.Hour,
	}
	if err = viper.UnmarshalKey("monitor.alert", &alertCfg); err != nil {
		panic(err)
	}
	store := alert.NewStore(alertRepo, alertCfg)

	var dispatchCfg notification.DispatchConfig
	if err = viper.UnmarshalKey("notification.dispatch", &dispatchCfg); err != nil {
		panic(err)
	}
	dispatcher := notification.NewDispatcher([]notification.Channel{
		ioc.InitEmailChannel(),
		ioc.InitServerChanChannel(),
	}, dispatchCfg)

	sources := []signalsvc.Source{
		glassnode.NewService(viper.GetString("signal.glassnode.api_key")),
		binancesignal.NewService(ioc.InitBinanceCli()),
	}
	priceSvc := coingecko.NewService()

	monitorCfg := monitor.Config{
		Assets: []signalsvc.Asset{
			{Symbol: "BTC", CoingeckoId: "bitcoin"},
			{Symbol: "ETH", CoingeckoId: "ethereum"},
		},
	}
	if viper.IsSet("monitor.assets") {
		monitorCfg.Assets = nil
	}
	if err = viper.UnmarshalKey("monitor", &monitorCfg); err != nil {
		panic(err)
	}

	var opts []monitor.Option
	if viper.IsSet("llm.gemini") {
		advisor := monitor.NewLLMAdvisor(gemini.NewService(ioc.InitGeminiCli()))
		opts = append(opts, monitor.WithAdvisor(advisor))
	}

	overheatSvc := monitor.NewOverheatMonitor(monitorCfg, priceSvc, sources,
		engine, store, dispatcher, histRepo, opts...)

	interval := viper.GetDuration("monitor.interval")
	if interval <= 0 {
		interval = 3 * time.Hour
	}
	runner := schedule.NewIntervalRunner(monitor.NewCheckTask(overheatSvc), interval)

	addr := viper.GetString("web.addr")
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: web.NewServer(overheatSvc, runner).Handler(),
	}

	ctx, stop := osignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runner.Start(ctx)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
}
