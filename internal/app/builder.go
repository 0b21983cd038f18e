package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/EgorLis/filedrop/internal/config"
	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/infra/meta/jsonfile"
	"github.com/EgorLis/filedrop/internal/infra/meta/redisdoc"
	"github.com/EgorLis/filedrop/internal/infra/storage/disk"
	s3storage "github.com/EgorLis/filedrop/internal/infra/storage/s3"
	"github.com/EgorLis/filedrop/internal/ingest"
	"github.com/EgorLis/filedrop/internal/registry"
	"github.com/EgorLis/filedrop/internal/retrieve"
	"github.com/EgorLis/filedrop/internal/sweep"
	"github.com/EgorLis/filedrop/internal/transport/web"
)

type App struct {
	config  *config.Config
	server  *web.Server
	sweeper *sweep.Sweeper
	log     *log.Logger
	meta    domain.MetaStore
	blobs   domain.BlobStore
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[filedrop] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	metaLog := log.New(base.Writer(), base.Prefix()+"[meta] ", base.Flags())
	blobLog := log.New(base.Writer(), base.Prefix()+"[blobs] ", base.Flags())
	registryLog := log.New(base.Writer(), base.Prefix()+"[registry] ", base.Flags())
	ingestLog := log.New(base.Writer(), base.Prefix()+"[ingest] ", base.Flags())
	retrieveLog := log.New(base.Writer(), base.Prefix()+"[retrieve] ", base.Flags())
	sweepLog := log.New(base.Writer(), base.Prefix()+"[sweep] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	var meta domain.MetaStore
	switch cfg.MetaBackend {
	case "redis":
		base.Println("init Redis metadata store")
		rd := redisdoc.New(redisdoc.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, metaLog)
		if err := rd.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed init redis: %w", err)
		}
		meta = rd
	default:
		base.Println("init JSON metadata store")
		js, err := jsonfile.New(cfg.MetaPath, metaLog)
		if err != nil {
			return nil, fmt.Errorf("failed init metadata store: %w", err)
		}
		meta = js
	}

	var blobs domain.BlobStore
	switch cfg.StorageBackend {
	case "s3":
		base.Println("init S3 blob store")
		s3cfg := s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		}
		blobs, err = s3storage.New(ctx, s3cfg, blobLog)
		if err != nil {
			return nil, fmt.Errorf("failed init s3: %w", err)
		}
	default:
		base.Println("init disk blob store")
		blobs, err = disk.New(cfg.StorageDir, blobLog)
		if err != nil {
			return nil, fmt.Errorf("failed init disk store: %w", err)
		}
	}

	reg := registry.New(meta, registryLog)
	engine := ingest.New(blobs, reg, ingestLog, cfg.StrictMeta)
	files := retrieve.New(blobs, reg, cfg.FileTTL, retrieveLog)
	sweeper := sweep.New(blobs, reg, cfg.FileTTL, cfg.SweepInterval, sweepLog)

	base.Println("init Server")
	server := web.New(serverLog, cfg, engine, files, reg)
	base.Println("build ended")

	return &App{
		config:  cfg,
		server:  server,
		sweeper: sweeper,
		log:     base,
		meta:    meta,
		blobs:   blobs,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	go a.sweeper.Start(ctx)
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	if closer, ok := a.meta.(interface{ Close() }); ok {
		closer.Close()
	}

	return nil
}
