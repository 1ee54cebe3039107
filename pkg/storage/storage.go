// Package storage archives JSON documents to Azure Blob Storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/underwriter/pkg/lifecycle"
)

// System writes decision archives under a key prefix. The pipeline only
// ever writes; reads go through the storage account's own tooling.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Enabled reports whether writes reach a backing store.
	Enabled() bool
	// Key joins parts beneath the configured prefix.
	Key(parts ...string) string
	// Put writes data to the blob at key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// New creates a storage system from the given configuration.
// A disabled configuration yields a store that discards writes.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage")

	if !cfg.Enabled {
		return &disabled{prefix: cfg.Prefix, logger: logger}, nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		prefix:    cfg.Prefix,
		logger:    logger,
	}, nil
}

func newClient(cfg *Config) (*azblob.Client, error) {
	if cfg.ConnectionString != "" {
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve azure credential: %w", err)
	}
	return azblob.NewClient(cfg.AccountURL, cred, nil)
}

type azure struct {
	client    *azblob.Client
	container string
	prefix    string
	logger    *slog.Logger
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system")

	lc.OnStartup(func() {
		_, err := a.client.CreateContainer(lc.Context(), a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("storage container initialization failed", "error", err)
			return
		}

		a.logger.Info("storage container ready", "container", a.container)
	})

	return nil
}

func (a *azure) Enabled() bool { return true }

func (a *azure) Key(parts ...string) string {
	return joinKey(a.prefix, parts...)
}

func (a *azure) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	if _, err := a.client.UploadStream(ctx, a.container, key, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	a.logger.Debug("blob written", "key", key, "bytes", len(data))
	return nil
}

type disabled struct {
	prefix string
	logger *slog.Logger
}

func (d *disabled) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("storage disabled")
	return nil
}

func (d *disabled) Enabled() bool { return false }

func (d *disabled) Key(parts ...string) string {
	return joinKey(d.prefix, parts...)
}

// Put validates key and discards data.
func (d *disabled) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return validateKey(key)
}

func joinKey(prefix string, parts ...string) string {
	return path.Join(append([]string{prefix}, parts...)...)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
