// Command orders-export dumps all orders with their line items to a
// gzip-compressed JSON file, newest-first. Intended for ad-hoc reporting and
// for seeding analytics pipelines.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/order-pipeline/internal/domain/order"
	"github.com/xenking/order-pipeline/internal/storage/postgres"
)

const encoderBufSize = 1 << 16

func main() {
	var (
		outPath     string
		databaseURL string
	)

	flag.StringVar(&outPath, "out", "orders.json.gz", "output file path")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, outPath); err != nil {
		slog.Error("orders export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("orders export completed successfully", slog.String("out", outPath))
}

func run(ctx context.Context, databaseURL, outPath string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	store := postgres.NewOrderStore(pool)

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", outPath)
	}
	defer func() { _ = f.Close() }()

	gz := pgzip.NewWriter(f)
	if err := exportOrders(ctx, store, gz); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush gzip stream")
	}

	return f.Close()
}

// exportOrders streams all orders as a JSON array to w.
func exportOrders(ctx context.Context, store order.Store, w io.Writer) error {
	orders, err := store.ListOrders(ctx)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}

	slog.Info("exporting orders", slog.Int("count", len(orders)))

	e := jx.NewStreamingEncoder(w, encoderBufSize)
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(e, o)
	}
	e.ArrEnd()

	if err := e.Close(); err != nil {
		return errors.Wrap(err, "flush encoder")
	}
	return nil
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("total")
	e.RawStr(o.Total.StringFixed(2))
	e.FieldStart("products")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(it.ProductID)
		e.FieldStart("product_name")
		e.Str(it.ProductName)
		e.FieldStart("price")
		e.RawStr(it.Price.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
