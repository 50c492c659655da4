package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appconversion "github.com/seifenwerk/orderdesk/internal/application/conversion"
	appinventory "github.com/seifenwerk/orderdesk/internal/application/inventory"
	appinvoicing "github.com/seifenwerk/orderdesk/internal/application/invoicing"
	apppaymentsync "github.com/seifenwerk/orderdesk/internal/application/paymentsync"
	"github.com/seifenwerk/orderdesk/internal/config"
	"github.com/seifenwerk/orderdesk/internal/domain/catalog"
	"github.com/seifenwerk/orderdesk/internal/domain/document"
	dominquiry "github.com/seifenwerk/orderdesk/internal/domain/inquiry"
	dominventory "github.com/seifenwerk/orderdesk/internal/domain/inventory"
	dominvoice "github.com/seifenwerk/orderdesk/internal/domain/invoice"
	domorder "github.com/seifenwerk/orderdesk/internal/domain/order"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/cache"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/gormstore"
	httptransport "github.com/seifenwerk/orderdesk/internal/infrastructure/http"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/id"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/memory"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/notify"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/outbox"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/payment"
	"github.com/seifenwerk/orderdesk/internal/infrastructure/render"
	"github.com/seifenwerk/orderdesk/internal/pkg/logging"
)

type repositories struct {
	inquiries dominquiry.Repository
	orders    domorder.Repository
	invoices  dominvoice.Repository
	stock     dominventory.Repository
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	repos, err := buildRepositories(cfg)
	if err != nil {
		logger.Fatal("storage_init_failed", zap.Error(err))
	}

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	productCatalog := memory.NewCatalog()
	seedCatalog(productCatalog)
	cachedCatalog := cache.NewCatalogCache(productCatalog, logger)
	cachedCatalog.Subscribe(bus)

	notify.Subscribe(bus, notify.NewLogNotifier(logger))

	idGenerator := id.NewUUIDGenerator()
	ledger := appinventory.NewLedger(cachedCatalog, repos.stock, bus)

	generator := appinvoicing.NewGenerator(
		repos.invoices,
		appinvoicing.NewSequenceAllocator(repos.invoices),
		render.NewTextRenderer(),
		idGenerator,
		appinvoicing.Settings{
			VATRatePercent: decimal.NewFromFloat(cfg.VATRatePercent),
			TaxExempt:      cfg.TaxExempt,
			DueDays:        cfg.InvoiceDueDays,
			Retries:        cfg.SequenceRetries,
			Template: document.TemplateConfig{
				CompanyName: cfg.CompanyName,
				FooterNote:  cfg.FooterNote,
			},
		},
	)

	pipeline := appconversion.NewPipeline(
		repos.inquiries,
		repos.orders,
		ledger,
		generator,
		bus,
		idGenerator,
		appconversion.ShippingPolicy{
			FreeFrom: decimal.NewFromFloat(cfg.FreeShippingFrom),
			Fee:      decimal.NewFromFloat(cfg.ShippingFee),
		},
		decimal.NewFromFloat(cfg.VATRatePercent),
	)
	coordinator := apppaymentsync.NewCoordinator(repos.orders, repos.invoices, repos.inquiries)

	handler := httptransport.NewHandler(pipeline, coordinator, repos.orders, payment.NewSandboxProcessor())
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", withRequestLogger(logger, handler.Router()))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}

func buildRepositories(cfg config.Config) (repositories, error) {
	if cfg.SQLitePath == "" {
		return repositories{
			inquiries: memory.NewInquiryRepository(),
			orders:    memory.NewOrderRepository(),
			invoices:  memory.NewInvoiceRepository(),
			stock:     memory.NewInventoryRepository(),
		}, nil
	}

	db, err := gormstore.Open(cfg.SQLitePath)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		inquiries: gormstore.NewInquiryRepository(db),
		orders:    gormstore.NewOrderRepository(db),
		invoices:  gormstore.NewInvoiceRepository(db),
		stock:     gormstore.NewInventoryRepository(db),
	}, nil
}

// seedCatalog loads the demo product range: plain raw materials plus a
// composite finished soap consumed proportionally from two of them.
func seedCatalog(c *memory.Catalog) {
	c.Seed(
		catalog.Product{
			Ref:       "soap-lavender",
			Name:      "Lavender Soap Bar",
			Kind:      catalog.KindStandard,
			UnitPrice: decimal.RequireFromString("8.90"),
			Composition: []catalog.Component{
				{MaterialRef: "raw-olive-base", Percent: decimal.NewFromInt(70)},
				{MaterialRef: "raw-shea-base", Percent: decimal.NewFromInt(30)},
			},
		},
		catalog.Product{
			Ref:       "raw-olive-base",
			Name:      "Olive Oil Soap Base",
			Kind:      catalog.KindRawSoap,
			UnitPrice: decimal.RequireFromString("3.50"),
		},
		catalog.Product{
			Ref:       "raw-shea-base",
			Name:      "Shea Butter Soap Base",
			Kind:      catalog.KindRawSoap,
			UnitPrice: decimal.RequireFromString("4.20"),
		},
		catalog.Product{
			Ref:       "fragrance-lavender",
			Name:      "Lavender Fragrance Oil",
			Kind:      catalog.KindFragrance,
			UnitPrice: decimal.RequireFromString("6.00"),
		},
		catalog.Product{
			Ref:       "box-kraft-small",
			Name:      "Small Kraft Gift Box",
			Kind:      catalog.KindPackaging,
			UnitPrice: decimal.RequireFromString("1.20"),
		},
	)
}

func withRequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.ContextWithLogger(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
		logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
