// Package redis implements the project ports on Redis so several hosts (the
// CLI, an HTTP server, an editor plug-in) can share one timeline.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/mediabridge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Project implements ports.Project using Redis.
//
// Layout under the prefix: "strip:<key>" holds each strip as JSON,
// "ids" maps stable IDs to keys, "order" keeps creation order and
// "controller:<id>" holds controller records.
type Project struct {
	client    *backend.Client
	prefix    string
	outputDir string
}

type Option func(*Project)

// WithPrefix sets the key prefix, one per project.
func WithPrefix(prefix string) Option {
	return func(p *Project) {
		p.prefix = prefix
	}
}

// WithOutputDir sets where stable artifacts are written. Without it the
// project behaves like an unsaved document.
func WithOutputDir(dir string) Option {
	return func(p *Project) {
		p.outputDir = dir
	}
}

// New creates a Redis project with its own client.
func New(address, password string, db int, opts ...Option) *Project {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis project from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Project {
	p := &Project{
		client: client,
		prefix: "mediabridge:project:",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Project) stripKey(key string) string     { return p.prefix + "strip:" + key }
func (p *Project) controllerKey(id string) string { return p.prefix + "controller:" + id }
func (p *Project) idsKey() string                 { return p.prefix + "ids" }
func (p *Project) orderKey() string               { return p.prefix + "order" }
func (p *Project) seqKey() string                 { return p.prefix + "seq" }

func (p *Project) Strip(ctx context.Context, id string) (domain.Strip, error) {
	if id == "" {
		return domain.Strip{}, domain.ErrStripNotFound
	}
	key, err := p.client.HGet(ctx, p.idsKey(), id).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Strip{}, domain.ErrStripNotFound
		}
		return domain.Strip{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	return p.byKey(ctx, key)
}

// Selected returns the selected strips, the active one first.
func (p *Project) Selected(ctx context.Context) ([]domain.Strip, error) {
	all, err := p.Strips(ctx)
	if err != nil {
		return nil, err
	}
	var active, rest []domain.Strip
	for _, s := range all {
		switch {
		case s.Active:
			active = append(active, s)
		case s.Selected:
			rest = append(rest, s)
		}
	}
	return append(active, rest...), nil
}

// AddStrip stores a new strip under a unique key derived from its name.
func (p *Project) AddStrip(ctx context.Context, spec domain.NewStrip) (domain.Strip, error) {
	s := domain.Strip{
		ID:            spec.ID,
		Name:          spec.Name,
		Kind:          spec.Kind,
		Channel:       spec.Channel,
		FrameStart:    spec.FrameStart,
		FrameDuration: spec.FrameDuration,
		Text:          spec.Text,
		FilePath:      spec.FilePath,
	}
	data, err := json.Marshal(s)
	if err != nil {
		return domain.Strip{}, fmt.Errorf("failed to marshal strip: %w", err)
	}

	// SETNX claims the key so two hosts adding "Name" never collide.
	var claimErr error
	s.Key = domain.UniqueKey(spec.Name, func(k string) bool {
		ok, err := p.client.SetNX(ctx, p.stripKey(k), data, 0).Result()
		if err != nil {
			claimErr = err
			return false
		}
		return !ok
	})
	if claimErr != nil {
		return domain.Strip{}, fmt.Errorf("failed to save to redis: %w", claimErr)
	}

	seq, err := p.client.Incr(ctx, p.seqKey()).Result()
	if err != nil {
		return domain.Strip{}, fmt.Errorf("failed to save to redis: %w", err)
	}
	if err := p.write(ctx, s, float64(seq)); err != nil {
		return domain.Strip{}, err
	}
	return s, nil
}

func (p *Project) SetMedia(ctx context.Context, id, path string) error {
	return p.update(ctx, id, func(s *domain.Strip) { s.FilePath = path })
}

func (p *Project) SetText(ctx context.Context, id, text string) error {
	return p.update(ctx, id, func(s *domain.Strip) { s.Text = text })
}

func (p *Project) AssignID(ctx context.Context, key, id string) error {
	s, err := p.byKey(ctx, key)
	if err != nil {
		return err
	}
	pipe := p.client.TxPipeline()
	if s.ID != "" {
		pipe.HDel(ctx, p.idsKey(), s.ID)
	}
	s.ID = id
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal strip: %w", err)
	}
	pipe.Set(ctx, p.stripKey(key), data, 0)
	pipe.HSet(ctx, p.idsKey(), id, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (p *Project) LoadController(ctx context.Context, id string) (*domain.Controller, error) {
	val, err := p.client.Get(ctx, p.controllerKey(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrControllerNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	var c domain.Controller
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal controller: %w", err)
	}
	return &c, nil
}

func (p *Project) SaveController(ctx context.Context, c *domain.Controller) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal controller: %w", err)
	}
	if err := p.client.Set(ctx, p.controllerKey(c.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// OutputDir implements ports.Workspace.
func (p *Project) OutputDir() (string, error) {
	if p.outputDir == "" {
		return "", domain.ErrNoProject
	}
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", err
	}
	return p.outputDir, nil
}

// Select marks the strips with the given keys as selected, the first one
// active, and clears every other selection.
func (p *Project) Select(ctx context.Context, keys ...string) error {
	all, err := p.Strips(ctx)
	if err != nil {
		return err
	}
	rank := make(map[string]int, len(keys))
	for i, k := range keys {
		rank[k] = i
	}
	present := make(map[string]bool, len(all))
	for _, s := range all {
		present[s.Key] = true
	}
	for _, k := range keys {
		if !present[k] {
			return fmt.Errorf("%w: %s", domain.ErrStripNotFound, k)
		}
	}

	pipe := p.client.TxPipeline()
	for _, s := range all {
		i, ok := rank[s.Key]
		s.Selected = ok
		s.Active = ok && i == 0
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal strip: %w", err)
		}
		pipe.Set(ctx, p.stripKey(s.Key), data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Strips returns every strip in creation order.
func (p *Project) Strips(ctx context.Context) ([]domain.Strip, error) {
	keys, err := p.client.ZRange(ctx, p.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list strips: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = p.stripKey(k)
	}
	vals, err := p.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	out := make([]domain.Strip, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var s domain.Strip
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal strip: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Close closes the redis client.
func (p *Project) Close() error {
	return p.client.Close()
}

func (p *Project) byKey(ctx context.Context, key string) (domain.Strip, error) {
	val, err := p.client.Get(ctx, p.stripKey(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Strip{}, domain.ErrStripNotFound
		}
		return domain.Strip{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	var s domain.Strip
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return domain.Strip{}, fmt.Errorf("failed to unmarshal strip: %w", err)
	}
	return s, nil
}

func (p *Project) update(ctx context.Context, id string, fn func(*domain.Strip)) error {
	s, err := p.Strip(ctx, id)
	if err != nil {
		return err
	}
	fn(&s)
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal strip: %w", err)
	}
	if err := p.client.Set(ctx, p.stripKey(s.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (p *Project) write(ctx context.Context, s domain.Strip, score float64) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal strip: %w", err)
	}
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.stripKey(s.Key), data, 0)
	pipe.ZAdd(ctx, p.orderKey(), backend.Z{Score: score, Member: s.Key})
	if s.ID != "" {
		pipe.HSet(ctx, p.idsKey(), s.ID, s.Key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}
