package plugin

import (
	"log/slog"
	"time"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/proxy"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	lru "github.com/hashicorp/golang-lru/v2"
)

// session owns the state of one build: the immutable proxy mapping
// plus a bounded transform cache so watch-mode rebuilds skip
// re-reading files that have not changed. Concurrent builds each get
// their own session and never share state.
type session struct {
	mapping *proxy.Mapping
	fs      billy.Filesystem
	logger  *slog.Logger
	cache   *lru.Cache[string, cachedTransform]
}

type cachedTransform struct {
	size     int64
	modTime  time.Time
	contents string
}

func newSession(cfg proxy.Config, s settings, platform string) (*session, error) {
	mapping, err := proxy.NewMapping(cfg, platform)
	if err != nil {
		return nil, err
	}
	size := s.cacheSize
	if size < 1 {
		size = 1
	}
	cache, err := lru.New[string, cachedTransform](size)
	if err != nil {
		return nil, err
	}
	return &session{
		mapping: mapping,
		fs:      s.fs,
		logger:  s.logger,
		cache:   cache,
	}, nil
}

// transform returns the file's contents with imports prepended,
// reusing the cached result while size and mtime are unchanged. The
// cache is safe for the concurrent load handlers esbuild runs.
func (s *session) transform(path, imports string) (string, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return "", err
	}
	if cached, ok := s.cache.Get(path); ok &&
		cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		return cached.contents, nil
	}

	src, err := util.ReadFile(s.fs, path)
	if err != nil {
		return "", err
	}
	contents := imports + string(src)
	s.cache.Add(path, cachedTransform{
		size:     info.Size(),
		modTime:  info.ModTime(),
		contents: contents,
	})
	return contents, nil
}
