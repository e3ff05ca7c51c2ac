package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"widgetgen/internal/gateway/config"
	"widgetgen/internal/session"
	"widgetgen/internal/snapshot"
)

type gatewayStores struct {
	sessions  session.Store
	snapshots snapshot.Store
	closeFn   func() error
}

func (s *gatewayStores) close(context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	stores := &gatewayStores{}

	var origin session.Store
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		sqlStore, err := session.OpenSQL(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open session db: %w", err)
		}
		origin = sqlStore
		stores.closeFn = sqlStore.Close
		log.Printf("session store: sql")
	} else {
		origin = session.NewMemoryStore()
		log.Printf("session store: in-memory")
	}
	cached, err := session.NewCachedStore(origin, session.CacheConfig{
		SessionMaxEntries: cfg.SessionCache.SessionEntries,
		MessageTTL:        cfg.SessionCache.MessageTTL,
		MessageMaxEntries: cfg.SessionCache.MessageEntries,
	})
	if err != nil {
		_ = stores.close(context.Background())
		return nil, fmt.Errorf("failed to init session cache: %w", err)
	}
	stores.sessions = cached

	snapshots, err := chooseSnapshotStore(cfg)
	if err != nil {
		_ = stores.close(context.Background())
		return nil, err
	}
	stores.snapshots = snapshots
	return stores, nil
}

func chooseSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	if !cfg.Artifact.CanUseS3() {
		if cfg.Artifact.Enabled {
			log.Printf("snapshot store: using in-memory fallback (s3 config incomplete)")
		}
		return snapshot.NewMemoryStore(), nil
	}
	s3Cfg := snapshot.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
		Prefix:    cfg.Artifact.Prefix,
	}
	s3Store, err := snapshot.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot s3 store: %w", err)
	}
	log.Printf("snapshot store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	return s3Store, nil
}
