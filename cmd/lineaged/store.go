package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/opst/pipeline-lineage/pkg/configs/lineaged"
	kpool "github.com/opst/pipeline-lineage/pkg/conn/db/postgres/pool"
	"github.com/opst/pipeline-lineage/pkg/discovery"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	kpostgres "github.com/opst/pipeline-lineage/pkg/domain/metadata/db/postgres"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/db/sqlite"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/rest"
	"github.com/opst/pipeline-lineage/pkg/utils/retry"
	"k8s.io/client-go/kubernetes"
)

// timeout for each request to rest backends.
const restTimeout = 30 * time.Second

// locate resolves the URL of the store.
//
// When the store has discovery, the host of the URL is replaced with the Service located.
// It waits until the Service gets ready.
func locate(
	ctx context.Context, logger *log.Logger, conf lineaged.Store,
	clientset func() (kubernetes.Interface, error), backoff retry.Backoff,
) (string, error) {
	d := conf.Discovery
	if d == nil {
		return conf.URL, nil
	}

	cs, err := clientset()
	if err != nil {
		return "", fmt.Errorf("cannot connect to kubernetes: %w", err)
	}

	target := discovery.Target{Namespace: d.Namespace, Service: d.Service, Port: d.Port}
	hostport, err := retry.Blocking(ctx, backoff, func(ctx context.Context) (string, error) {
		h, err := discovery.Locate(ctx, cs, target)
		if errors.Is(err, retry.ErrRetry) {
			logger.Printf("waiting for the store: %s", err)
		}
		return h, err
	})
	if err != nil {
		return "", err
	}
	logger.Printf("store is located at %s (service %s/%s)", hostport, d.Namespace, d.Service)
	return conf.WithHost(hostport)
}

// openStore connects to the store, and waits until it responds.
//
// # Returns
//
// - kdb.MetadataInterface
//
// - func(): closes the connection.
//
// - error
func openStore(
	ctx context.Context, logger *log.Logger, conf lineaged.Store,
	clientset func() (kubernetes.Interface, error), backoff retry.Backoff,
) (kdb.MetadataInterface, func(), error) {
	url, err := locate(ctx, logger, conf, clientset, backoff)
	if err != nil {
		return nil, nil, err
	}

	waiting := func(err error) error {
		logger.Printf("waiting for the store: %s", err)
		return fmt.Errorf("%w: %w", retry.ErrRetry, err)
	}

	switch conf.Backend {
	case lineaged.Postgres:
		pool, err := retry.Blocking(ctx, backoff, func(ctx context.Context) (kpool.Pool, error) {
			p, err := kpool.Connect(ctx, url)
			if err != nil {
				return nil, err
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return nil, waiting(err)
			}
			return p, nil
		})
		if err != nil {
			return nil, nil, err
		}
		return kpostgres.New(pool), pool.Close, nil

	case lineaged.SQLite:
		db, err := retry.Blocking(ctx, backoff, func(ctx context.Context) (*sql.DB, error) {
			db, err := sqlite.Open(ctx, url)
			if err != nil {
				return nil, waiting(err)
			}
			return db, nil
		})
		if err != nil {
			return nil, nil, err
		}
		return sqlite.New(db), func() { db.Close() }, nil

	case lineaged.Rest:
		store, err := rest.New(url, &http.Client{Timeout: restTimeout})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown backend %s", lineaged.ErrInvalidConfig, conf.Backend)
}
