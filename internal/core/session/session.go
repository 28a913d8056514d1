package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/cabinet/internal/config"
	"github.com/zeusync/cabinet/internal/core/asset"
	"github.com/zeusync/cabinet/internal/core/observability/log"
	"github.com/zeusync/cabinet/pkg/concurrent"
	"github.com/zeusync/cabinet/pkg/sequence"
)

var (
	ErrDuplicateCabinet = errors.New("cabinet already open")
	ErrSessionClosed    = errors.New("session is closed")
)

// Session is the set of cabinets an editor works on. It resolves
// dependency names to open cabinets and hands every cabinet the same path id
// allocator, so ids minted for new content never collide within a session.
type Session struct {
	id       uuid.UUID
	cfg      *config.Config
	logger   log.Log
	ids      *asset.IDAllocator
	registry *asset.Registry

	mu       sync.RWMutex
	cabinets map[string]*asset.Cabinet
	dirs     map[string]string
	closed   bool
}

func New(cfg *config.Config, logger log.Log) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	id := uuid.New()
	return &Session{
		id:       id,
		cfg:      cfg,
		logger:   logger.With(log.String("session", id.String())),
		ids:      asset.NewIDAllocator(),
		registry: asset.DefaultRegistry(),
		cabinets: make(map[string]*asset.Cabinet),
		dirs:     make(map[string]string),
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Allocator() *asset.IDAllocator {
	return s.ids
}

func (s *Session) Registry() *asset.Registry {
	return s.registry
}

func (s *Session) newCabinet(name string) *asset.Cabinet {
	return asset.New(name,
		asset.WithLogger(s.logger),
		asset.WithAllocator(s.ids),
		asset.WithRegistry(s.registry),
		asset.WithUnknownClasses(s.cfg.UnknownClasses()),
	)
}

// NewCabinet opens an empty cabinet for new content.
func (s *Session) NewCabinet(name string) (*asset.Cabinet, error) {
	c := s.newCabinet(name)
	if err := s.register(c, ""); err != nil {
		return nil, err
	}
	return c, nil
}

// Open loads the cabinet at path, registers it under its base name and links.
// If linking fails, the cabinet and any dependency opened for it are closed
// again.
func (s *Session) Open(path string) (*asset.Cabinet, error) {
	c, err := s.load(path)
	if err != nil {
		return nil, err
	}
	keep := s.names()
	if err = s.register(c, filepath.Dir(path)); err != nil {
		c.Close()
		return nil, err
	}
	if _, err = s.Link(); err != nil {
		s.rollback(keep)
		return nil, err
	}
	return c, nil
}

// LoadFiles decodes the given files in parallel, bounded by the configured
// worker count, then registers and links them. Either every file is
// registered or none is: on failure, cabinets opened by the call are closed.
func (s *Session) LoadFiles(ctx context.Context, paths ...string) ([]*asset.Cabinet, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if prev, dup := names[name]; dup {
			return nil, fmt.Errorf("%s and %s: %w", prev, p, ErrDuplicateCabinet)
		}
		if _, open := s.Cabinet(name); open {
			return nil, fmt.Errorf("%s: %w", name, ErrDuplicateCabinet)
		}
		names[name] = p
	}

	cabinets, err := concurrent.Map(ctx, sequence.From(paths), s.cfg.Cabinet.LoadWorkers,
		func(_ context.Context, path string) (*asset.Cabinet, error) {
			return s.load(path)
		})
	if err != nil {
		return nil, err
	}

	keep := s.names()
	for i, c := range cabinets {
		if err = s.register(c, filepath.Dir(paths[i])); err != nil {
			for _, rest := range cabinets[i:] {
				rest.Close()
			}
			s.rollback(keep)
			return nil, err
		}
	}
	if _, err = s.Link(); err != nil {
		s.rollback(keep)
		return nil, err
	}
	return cabinets, nil
}

func (s *Session) names() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.cabinets))
	for name := range s.cabinets {
		out[name] = struct{}{}
	}
	return out
}

// rollback closes and drops every cabinet registered after keep was taken.
// Pointers other cabinets bound into them read as unresolved again.
func (s *Session) rollback(keep map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, c := range s.cabinets {
		if _, ok := keep[name]; ok {
			continue
		}
		c.Close()
		delete(s.cabinets, name)
		delete(s.dirs, name)
		s.logger.Debug("cabinet rolled back", log.String("cabinet", name))
	}
}

func (s *Session) load(path string) (*asset.Cabinet, error) {
	c := s.newCabinet(filepath.Base(path))
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Session) register(c *asset.Cabinet, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if _, dup := s.cabinets[c.Name()]; dup {
		return fmt.Errorf("%s: %w", c.Name(), ErrDuplicateCabinet)
	}
	s.cabinets[c.Name()] = c
	s.dirs[c.Name()] = dir
	s.logger.Debug("cabinet registered", log.String("cabinet", c.Name()), log.Int("objects", c.Len()))
	return nil
}

// Link binds every unbound dependency to the open cabinet of the same name.
// Dependencies that are not open yet are looked up next to the referencing
// file, then in the configured search paths, and loaded when found. It
// reports how many pointers became resolved.
func (s *Session) Link() (int, error) {
	if s.isClosed() {
		return 0, ErrSessionClosed
	}
	resolved := 0
	for progress := true; progress; {
		progress = false
		for _, c := range s.Cabinets() {
			for _, dep := range c.Dependencies() {
				if bound := dep.Cabinet(); bound != nil && !bound.IsClosed() {
					continue
				}
				target, ok := s.Cabinet(dep.Name)
				if !ok {
					path, found := s.find(c.Name(), dep.Name)
					if !found {
						s.logger.Debug("dependency not available",
							log.String("cabinet", c.Name()),
							log.String("dependency", dep.Name),
						)
						continue
					}
					loaded, err := s.load(path)
					if err != nil {
						return resolved, fmt.Errorf("load dependency %s of %s: %w", dep.Name, c.Name(), err)
					}
					if err = s.register(loaded, filepath.Dir(path)); err != nil {
						return resolved, err
					}
					target, progress = loaded, true
				}
				if target == c {
					continue
				}
				resolved += c.BindDependency(dep.Name, target)
			}
		}
	}
	all := s.Cabinets()
	s.logger.Info("session linked",
		log.Int("cabinets", len(all)),
		log.Int("incomplete", sequence.From(all).Filter(hasUnboundDependency).Count()),
		log.Int("resolved", resolved),
	)
	return resolved, nil
}

func hasUnboundDependency(c *asset.Cabinet) bool {
	for _, dep := range c.Dependencies() {
		if bound := dep.Cabinet(); bound == nil || bound.IsClosed() {
			return true
		}
	}
	return false
}

func (s *Session) find(from, name string) (string, bool) {
	s.mu.RLock()
	dirs := make([]string, 0, len(s.cfg.Cabinet.SearchPaths)+1)
	if dir := s.dirs[from]; dir != "" {
		dirs = append(dirs, dir)
	}
	s.mu.RUnlock()
	dirs = append(dirs, s.cfg.Cabinet.SearchPaths...)

	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (s *Session) Cabinet(name string) (*asset.Cabinet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cabinets[name]
	return c, ok
}

// Cabinets returns the open cabinets ordered by name.
func (s *Session) Cabinets() []*asset.Cabinet {
	s.mu.RLock()
	all := make([]*asset.Cabinet, 0, len(s.cabinets))
	for _, c := range s.cabinets {
		all = append(all, c)
	}
	s.mu.RUnlock()
	return sequence.From(all).
		SortFunc(func(a, b *asset.Cabinet) int { return strings.Compare(a.Name(), b.Name()) }).
		Collect()
}

// Unresolved collects the unresolved pointers of every open cabinet.
func (s *Session) Unresolved() []asset.UnresolvedReferenceWarning {
	var out []asset.UnresolvedReferenceWarning
	for _, c := range s.Cabinets() {
		out = append(out, c.Unresolved()...)
	}
	return out
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close closes every cabinet. The session cannot be reused.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	all := make([]*asset.Cabinet, 0, len(s.cabinets))
	for _, c := range s.cabinets {
		all = append(all, c)
	}
	// cabinets only touch their own state while closing
	_ = concurrent.ForEach(context.Background(), sequence.From(all), s.cfg.Cabinet.LoadWorkers,
		func(_ context.Context, c *asset.Cabinet) error {
			c.Close()
			return nil
		})
	clear(s.cabinets)
	clear(s.dirs)
	s.logger.Info("session closed", log.Int("cabinets", len(all)))
	_ = s.logger.Sync()
	return nil
}
