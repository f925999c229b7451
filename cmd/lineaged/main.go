package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/pipeline-lineage/cmd/lineaged/handlers"
	"github.com/opst/pipeline-lineage/pkg/configs/lineaged"
	connk8s "github.com/opst/pipeline-lineage/pkg/conn/k8s"
	"github.com/opst/pipeline-lineage/pkg/metrics"
	"github.com/opst/pipeline-lineage/pkg/utils/echoutil"
	"github.com/opst/pipeline-lineage/pkg/utils/filewatch"
	"github.com/opst/pipeline-lineage/pkg/utils/retry"
	"github.com/opst/pipeline-lineage/pkg/utils/try"
	"github.com/youta-t/flarc"
	"k8s.io/client-go/kubernetes"
)

type Flags struct {
	Config     string `flag:"config" alias:"c" help:"path to config file"`
	LogLevel   string `flag:"loglevel" help:"log level. debug|info|warn|error|off. It overrides config."`
	Kubeconfig string `flag:"kubeconfig" help:"path to kubeconfig, used to discover the store"`
}

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()
	logger := log.Default()

	cmd := try.To(
		flarc.NewCommand(
			"Serve lineage of pipeline runs recorded in a metadata store",
			Flags{
				Config: envFallback("LINEAGED_CONFIG", "/etc/lineaged/config.yaml"),
			},
			flarc.Args{},
			func(ctx context.Context, c flarc.Commandline[Flags], _ []any) error {
				return Serve(ctx, logger, c.Flags())
			},
			flarc.WithDescription(`
Serve metadata records and lineage of pipeline runs over HTTP.

lineaged reads the metadata store configured in the file of --config,
and quits when the config file is modified, so that it is restarted.

    {{ .Command }} --config ./config.yaml --loglevel debug
`),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cmd))
}

func envFallback(key string, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func Serve(ctx context.Context, logger *log.Logger, flags Flags) error {
	if flags.Config == "" {
		return fmt.Errorf("%w: flag --config is required", flarc.ErrUsage)
	}
	conf, err := lineaged.Load(flags.Config)
	if err != nil {
		return fmt.Errorf("can not read configration: %w", err)
	}
	loglevel := conf.LogLevel
	if flags.LogLevel != "" {
		loglevel = flags.LogLevel
	}

	// quit when the config is updated.
	wctx, stopWatch, err := filewatch.UntilModifyContext(ctx, flags.Config)
	if err != nil {
		return fmt.Errorf("can not watch configration: %w", err)
	}
	defer stopWatch()

	backoff := retry.ExponentialBackoff(conf.Startup.Interval, 2, conf.Startup.MaxInterval)
	clientset := func() (kubernetes.Interface, error) {
		return connk8s.Connect(flags.Kubeconfig)
	}
	store, closeStore, err := openStore(wctx, logger, conf.Store, clientset, backoff)
	if err != nil {
		return fmt.Errorf("can not connect to the store: %w", err)
	}
	defer closeStore()

	m := metrics.New()
	store = metrics.Instrument(store, m)

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.RequestId)
	e.Use(echoutil.LogHandlerFunc)

	handlers.Register(e, store, m, conf.ContextType)

	logger.Println("registred routes:")
	for _, r := range e.Routes() {
		logger.Println(r.Method, r.Path)
	}

	context.AfterFunc(wctx, func() {
		logger.Printf("shutting down: %s", context.Cause(wctx))
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			logger.Printf("error on shutdown: %s", err)
		}
	})

	if err := e.Start(":" + strconv.Itoa(conf.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if ctx.Err() == nil {
		// the config is modified.
		return context.Cause(wctx)
	}
	return nil
}
