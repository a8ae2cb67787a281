package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/dusk-indust/cgprof/internal/callgrind"
	"github.com/dusk-indust/cgprof/internal/graph"
)

const (
	defaultLimit = 20
	defaultDepth = 5
)

// ErrNoProfile is returned by query tools before parse_profile has run.
var ErrNoProfile = errors.New("no profile loaded; call parse_profile first")

// StoreFactory opens an empty graph store.
type StoreFactory func() (graph.Store, error)

// MemStoreFactory returns in-memory stores.
func MemStoreFactory() (graph.Store, error) {
	return graph.NewMemStore(), nil
}

// ProfileService holds the most recently parsed profile and its call graph.
// Each parse_profile call replaces both.
type ProfileService struct {
	newStore StoreFactory
	logger   zerolog.Logger

	mu     sync.RWMutex
	store  graph.Store
	events []string
}

// NewProfileService creates a ProfileService that loads each parsed profile
// into a fresh store from newStore.
func NewProfileService(newStore StoreFactory, logger zerolog.Logger) *ProfileService {
	return &ProfileService{newStore: newStore, logger: logger}
}

// Close releases the current store, if any.
func (s *ProfileService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// ParseProfile parses a callgrind file and loads it into a new call graph.
func (s *ProfileService) ParseProfile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ParseProfileInput,
) (*mcp.CallToolResult, ParseProfileOutput, error) {
	if input.Path == "" {
		return nil, ParseProfileOutput{}, fmt.Errorf("path is required")
	}

	res, err := callgrind.NewParser(input.Path, callgrind.WithLogger(s.logger)).Parse(ctx)
	if err != nil {
		return nil, ParseProfileOutput{}, fmt.Errorf("parse %s: %w", input.Path, err)
	}

	store, err := s.newStore()
	if err != nil {
		return nil, ParseProfileOutput{}, fmt.Errorf("open store: %w", err)
	}
	stats, err := graph.Load(ctx, store, res)
	if err != nil {
		_ = store.Close()
		return nil, ParseProfileOutput{}, fmt.Errorf("load graph: %w", err)
	}

	s.mu.Lock()
	old := s.store
	s.store = store
	s.events = res.Events
	s.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close previous store")
		}
	}

	out := ParseProfileOutput{
		Source:     input.Path,
		Events:     res.Events,
		Entries:    len(res.Profile),
		Calls:      len(res.Calls),
		LinesRead:  res.LinesRead,
		ErrorCount: len(res.Errors),
		Stats:      *stats,
	}
	if input.IncludeErrors {
		out.Errors = res.Errors
	}
	return nil, out, nil
}

// current returns the loaded store and events, or ErrNoProfile.
func (s *ProfileService) current() (graph.Store, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, nil, ErrNoProfile
	}
	return s.store, s.events, nil
}

// QueryFunctions searches for functions by name substring match.
func (s *ProfileService) QueryFunctions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryFunctionsInput,
) (*mcp.CallToolResult, QueryFunctionsOutput, error) {
	store, _, err := s.current()
	if err != nil {
		return nil, QueryFunctionsOutput{}, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	fns, err := store.QueryFunctions(ctx, input.Query, limit)
	if err != nil {
		return nil, QueryFunctionsOutput{}, fmt.Errorf("query functions: %w", err)
	}
	if fns == nil {
		fns = []graph.FunctionNode{}
	}
	return nil, QueryFunctionsOutput{Functions: fns, Total: len(fns)}, nil
}

// TopFunctions ranks functions by an event total.
func (s *ProfileService) TopFunctions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TopFunctionsInput,
) (*mcp.CallToolResult, TopFunctionsOutput, error) {
	store, events, err := s.current()
	if err != nil {
		return nil, TopFunctionsOutput{}, err
	}
	event := input.Event
	if event == "" {
		if len(events) == 0 {
			return nil, TopFunctionsOutput{}, fmt.Errorf("event is required: profile declares no events")
		}
		event = events[0]
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	fns, err := store.TopFunctions(ctx, event, limit)
	if err != nil {
		return nil, TopFunctionsOutput{}, fmt.Errorf("top functions: %w", err)
	}
	return nil, TopFunctionsOutput{Event: event, Functions: fns}, nil
}

// GetCalls traverses the call graph from a function.
func (s *ProfileService) GetCalls(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetCallsInput,
) (*mcp.CallToolResult, GetCallsOutput, error) {
	store, _, err := s.current()
	if err != nil {
		return nil, GetCallsOutput{}, err
	}
	if input.Key == "" {
		return nil, GetCallsOutput{}, fmt.Errorf("key is required")
	}

	fn, err := store.GetFunction(ctx, input.Key)
	if err != nil {
		return nil, GetCallsOutput{}, fmt.Errorf("get function: %w", err)
	}
	if fn == nil {
		return nil, GetCallsOutput{}, fmt.Errorf("unknown function key %q", input.Key)
	}

	direction := graph.DirectionCallees
	if strings.EqualFold(input.Direction, string(graph.DirectionCallers)) {
		direction = graph.DirectionCallers
	}
	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultDepth
	}

	chains, err := store.GetCalls(ctx, input.Key, direction, maxDepth)
	if err != nil {
		return nil, GetCallsOutput{}, fmt.Errorf("get calls: %w", err)
	}
	if chains == nil {
		chains = []graph.CallChain{}
	}
	return nil, GetCallsOutput{Chains: chains}, nil
}

// GetClusters returns the connected call components of the loaded profile.
func (s *ProfileService) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	store, _, err := s.current()
	if err != nil {
		return nil, GetClustersOutput{}, err
	}
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, fmt.Errorf("get clusters: %w", err)
	}
	if clusters == nil {
		clusters = []graph.ClusterNode{}
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}
