package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/tstserve/internal/logger"
	"github.com/bastiangx/tstserve/internal/utils"
	"github.com/bastiangx/tstserve/pkg/config"
	"github.com/bastiangx/tstserve/pkg/dictionary"
	"github.com/bastiangx/tstserve/pkg/metrics"
	"github.com/bastiangx/tstserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Index is the suggester surface the server drives.
type Index interface {
	suggest.Suggester
	Build(src dictionary.TermSource) error
	StoreDir(dir string) (bool, error)
	LoadDir(dir string) (bool, error)
	Remove(key string) bool
	UsePrefix() bool
	EditDistance() int
}

// Options locate the files the server acts on.
type Options struct {
	ConfigPath string
	DataDir    string
	StoreDir   string
	ChunkCount int
	Metrics    *metrics.Metrics
}

// Server handles msgpack IPC for term suggestions
type Server struct {
	index Index
	opts  Options

	cfgMu  sync.RWMutex
	config *config.Config

	chunkCount int
	decoder    *msgpack.Decoder
	encoder    *msgpack.Encoder
	writer     *bufio.Writer
	logger     *log.Logger
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(index Index, cfg *config.Config, opts Options) *Server {
	return NewServerIO(index, cfg, opts, os.Stdin, os.Stdout)
}

// NewServerIO creates a server reading requests from r and writing responses to w.
func NewServerIO(index Index, cfg *config.Config, opts Options, r io.Reader, w io.Writer) *Server {
	writer := bufio.NewWriter(w)
	return &Server{
		index:      index,
		opts:       opts,
		config:     cfg,
		chunkCount: opts.ChunkCount,
		decoder:    msgpack.NewDecoder(bufio.NewReader(r)),
		encoder:    msgpack.NewEncoder(writer),
		writer:     writer,
		logger:     logger.New("server"),
	}
}

// Start serves requests until the input closes or ctx is done. A malformed
// message ends the stream since the decoder cannot resynchronize.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Debug("Starting server")
	if interval := s.currentConfig().Server.ReloadInterval(); interval > 0 && s.opts.ConfigPath != "" {
		go s.reloadLoop(ctx, interval)
	}

	if err := s.send(ActionResponse{Status: StatusReady}); err != nil {
		return err
	}

	for ctx.Err() == nil {
		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Input closed, stopping server")
				return nil
			}
			s.logger.Errorf("Decoding request: %v", err)
			s.observe("decode", StatusError)
			if sendErr := s.send(CompletionError{Error: "invalid request", Code: 400}); sendErr != nil {
				return sendErr
			}
			return fmt.Errorf("decoding request: %w", err)
		}
		if err := s.handleRequest(req); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) currentConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.config
}

func (s *Server) reloadLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reloadConfig()
		}
	}
}

// reloadConfig rereads the config file; the previous config stays on failure.
func (s *Server) reloadConfig() {
	cfg, err := config.LoadConfig(s.opts.ConfigPath)
	if err != nil {
		s.logger.Warnf("Config reload failed: %v", err)
		return
	}
	s.cfgMu.Lock()
	s.config = cfg
	s.cfgMu.Unlock()
	s.logger.Debugf("Reloaded config from %s", s.opts.ConfigPath)
}

func (s *Server) handleRequest(req Request) error {
	if req.Action == "" {
		return s.handleCompletion(req)
	}

	var resp ActionResponse
	switch req.Action {
	case "add":
		resp = s.handleAdd(req)
	case "get":
		resp = s.handleGet(req)
	case "remove":
		resp = s.handleRemove(req)
	case "store":
		resp = s.persist(req.ID, "store", s.index.StoreDir)
	case "load":
		resp = s.persist(req.ID, "load", s.index.LoadDir)
	case "rebuild":
		resp = s.handleRebuild(req)
	case "stats":
		resp = s.handleStats(req)
	case "options":
		resp = s.handleOptions(req)
	case "config":
		resp = s.handleConfig(req)
	case "health":
		resp = ActionResponse{ID: req.ID, Status: StatusOK}
	default:
		resp = ActionResponse{ID: req.ID, Status: StatusError, Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
	s.observe(req.Action, resp.Status)
	return s.send(resp)
}

func (s *Server) handleCompletion(req Request) error {
	cfg := s.currentConfig()

	prefixLen := utf8.RuneCountInString(req.Prefix)
	if prefixLen < cfg.Server.MinPrefix {
		s.logger.Debugf("Prefix %q is too short", req.Prefix)
		return s.completionError(req.ID, fmt.Sprintf("prefix must be at least %d characters", cfg.Server.MinPrefix))
	}
	if prefixLen > cfg.Server.MaxPrefix {
		s.logger.Debugf("Prefix of %d characters is too long", prefixLen)
		return s.completionError(req.ID, fmt.Sprintf("prefix exceeds maximum length of %d characters", cfg.Server.MaxPrefix))
	}

	limit := req.Limit
	if limit <= 0 {
		limit = cfg.Suggest.DefaultLimit
	}
	limit = min(limit, cfg.Suggest.MaxLimit)

	popular := cfg.Suggest.OnlyMorePopular
	if req.OnlyMorePopular != nil {
		popular = *req.OnlyMorePopular
	}

	start := time.Now()
	var results []suggest.Suggestion
	if !cfg.Server.EnableFilter || utils.IsValidInput(req.Prefix) {
		results = s.index.Lookup(req.Prefix, popular, limit)
	}
	if cfg.Server.EnableFilter {
		results = filterDuplicates(req.Prefix, results)
	}
	elapsed := time.Since(start)

	suggestions := make([]CompletionSuggestion, len(results))
	for i, r := range results {
		suggestions[i] = CompletionSuggestion{Word: r.Word, Weight: r.Weight, Rank: i + 1}
	}
	s.observe("complete", StatusOK)
	return s.send(CompletionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func filterDuplicates(prefix string, results []suggest.Suggestion) []suggest.Suggestion {
	filter := utils.NewSuggestionFilter(prefix)
	kept := results[:0]
	for _, r := range results {
		if filter.ShouldInclude(r.Word) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (s *Server) completionError(id, message string) error {
	s.observe("complete", StatusError)
	return s.send(CompletionError{ID: id, Error: message, Code: 400})
}

func (s *Server) handleAdd(req Request) ActionResponse {
	if req.Word == "" {
		return ActionResponse{ID: req.ID, Status: StatusError, Error: "missing word"}
	}
	s.index.Add(req.Word, req.Weight)
	return ActionResponse{ID: req.ID, Status: StatusOK, Word: req.Word, Weight: req.Weight}
}

func (s *Server) handleGet(req Request) ActionResponse {
	weight, found := s.index.Get(req.Word)
	return ActionResponse{ID: req.ID, Status: StatusOK, Word: req.Word, Weight: weight, Found: found}
}

func (s *Server) handleRemove(req Request) ActionResponse {
	if req.Word == "" {
		return ActionResponse{ID: req.ID, Status: StatusError, Error: "missing word"}
	}
	found := s.index.Remove(req.Word)
	return ActionResponse{ID: req.ID, Status: StatusOK, Word: req.Word, Found: found}
}

// handleConfig saves the requested limits and swaps in the updated config.
func (s *Server) handleConfig(req Request) ActionResponse {
	if s.opts.ConfigPath == "" {
		return ActionResponse{ID: req.ID, Status: StatusUnavailable, Error: "no config file in use"}
	}
	updated := *s.currentConfig()
	if err := updated.Update(s.opts.ConfigPath, req.MaxLimit, req.MinPrefix, req.MaxPrefix, req.EnableFilter); err != nil {
		s.logger.Errorf("Config update failed: %v", err)
		return ActionResponse{ID: req.ID, Status: StatusError, Error: err.Error()}
	}
	s.cfgMu.Lock()
	s.config = &updated
	s.cfgMu.Unlock()
	s.logger.Debugf("Updated config at %s", s.opts.ConfigPath)
	return ActionResponse{ID: req.ID, Status: StatusOK}
}

func (s *Server) persist(id, op string, fn func(string) (bool, error)) ActionResponse {
	ok, err := fn(s.opts.StoreDir)
	switch {
	case err != nil:
		s.logger.Errorf("%s failed: %v", op, err)
		return ActionResponse{ID: id, Status: StatusError, Error: err.Error()}
	case !ok:
		return ActionResponse{ID: id, Status: StatusUnavailable}
	default:
		return ActionResponse{ID: id, Status: StatusOK}
	}
}

func (s *Server) handleRebuild(req Request) ActionResponse {
	count := s.chunkCount
	if req.ChunkCount != nil {
		count = *req.ChunkCount
	}

	src, err := dictionary.OpenDir(s.opts.DataDir, count)
	if err != nil {
		return ActionResponse{ID: req.ID, Status: StatusError, Error: err.Error()}
	}
	if err := s.index.Build(src); err != nil {
		s.logger.Errorf("Rebuild failed: %v", err)
		return ActionResponse{ID: req.ID, Status: StatusError, Error: err.Error()}
	}
	s.chunkCount = count

	if s.currentConfig().Store.Autosave {
		if _, err := s.index.StoreDir(s.opts.StoreDir); err != nil {
			s.logger.Warnf("Autosave after rebuild failed: %v", err)
		}
	}
	return s.handleStats(req)
}

func (s *Server) handleStats(req Request) ActionResponse {
	stats := s.index.Stats()
	return ActionResponse{
		ID:     req.ID,
		Status: StatusOK,
		Stats: &StatsInfo{
			Terms:        stats.Terms,
			Nodes:        stats.Nodes,
			MaxDepth:     stats.MaxDepth,
			UsePrefix:    s.index.UsePrefix(),
			EditDistance: s.index.EditDistance(),
			ChunkCount:   s.chunkCount,
		},
	}
}

func (s *Server) handleOptions(req Request) ActionResponse {
	sizes, err := dictionary.SizeOptions(s.opts.DataDir)
	if err != nil {
		return ActionResponse{ID: req.ID, Status: StatusError, Error: err.Error()}
	}
	options := make([]SizeOption, len(sizes))
	for i, o := range sizes {
		options[i] = SizeOption{ChunkCount: o.ChunkCount, WordCount: o.WordCount, SizeLabel: o.SizeLabel}
	}
	return ActionResponse{ID: req.ID, Status: StatusOK, Options: options}
}

func (s *Server) send(response any) error {
	if err := s.encoder.Encode(response); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func (s *Server) observe(action, status string) {
	if s.opts.Metrics == nil {
		return
	}
	s.opts.Metrics.RequestsTotal.WithLabelValues(action, status).Inc()
}
