// Package meta loads engine configuration documents through the afs
// virtual file system, so tuning files can live on any scheme afs
// understands.  Documents are YAML; ${env.KEY} expressions are expanded
// before decoding.
package meta

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service resolves and decodes configuration documents.
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// New creates a meta service rooted at baseURL.  An empty baseURL makes
// every location absolute.
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	return &Service{fs: fs, baseURL: baseURL, options: options}
}

// Exists reports whether the document at location is present.
func (s *Service) Exists(ctx context.Context, location string) (bool, error) {
	return s.fs.Exists(ctx, s.resolve(location))
}

// Load reads, expands and decodes the document at location into target.
func (s *Service) Load(ctx context.Context, location string, target interface{}) error {
	resolved := s.resolve(location)
	data, err := s.fs.DownloadWithURL(ctx, resolved, s.options...)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", resolved, err)
	}
	expanded := expandEnvExpr(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", resolved, err)
	}
	return nil
}

func (s *Service) resolve(location string) string {
	if s.baseURL == "" {
		return location
	}
	return url.Join(s.baseURL, location)
}
