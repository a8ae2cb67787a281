//go:build cgo

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path. KuzuDB creates the leaf itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(dbPath string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database %s: %w", dbPath, err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		id STRING,
		name STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Func(
		id STRING,
		file_id STRING,
		function_id STRING,
		file STRING,
		name STRING,
		line_count INT64,
		first_line INT64,
		events STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Cluster(
		name STRING,
		cohesion_score DOUBLE,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEFINES(FROM File TO Func)`,
	`CREATE REL TABLE IF NOT EXISTS CALLS(FROM Func TO Func, calls INT64, cost INT64)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO(FROM Func TO Cluster)`,
}

// relTables lists every relationship table, for counting.
var relTables = []string{"DEFINES", "CALLS", "BELONGS_TO"}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddFile inserts a File node.
func (s *KuzuStore) AddFile(_ context.Context, node FileNode) error {
	return s.exec(
		"CREATE (f:File {id: $id, name: $name})",
		map[string]any{"id": node.ID, "name": node.Name},
	)
}

// AddFunction inserts a Function node. Events are stored as a JSON object.
func (s *KuzuStore) AddFunction(_ context.Context, node FunctionNode) error {
	events, err := json.Marshal(node.Events)
	if err != nil {
		return fmt.Errorf("kuzu: encode events for %s: %w", node.Key, err)
	}
	return s.exec(
		`CREATE (f:Func {
			id: $fk,
			file_id: $fid,
			function_id: $fnid,
			file: $file,
			name: $name,
			line_count: $lc,
			first_line: $fl,
			events: $events
		})`,
		map[string]any{
			"fk":     node.Key,
			"fid":    node.FileID,
			"fnid":   node.FunctionID,
			"file":   node.File,
			"name":   node.Name,
			"lc":     int64(node.LineCount),
			"fl":     int64(node.FirstLine),
			"events": string(events),
		},
	)
}

// AddCluster inserts a Cluster node.
func (s *KuzuStore) AddCluster(_ context.Context, node ClusterNode) error {
	return s.exec(
		"CREATE (c:Cluster {name: $name, cohesion_score: $score})",
		map[string]any{
			"name":  node.Name,
			"score": node.CohesionScore,
		},
	)
}

// AddEdge inserts a relationship edge between two nodes.
// The Cypher statement is chosen based on the EdgeKind.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	params := map[string]any{
		"src": edge.SourceID,
		"dst": edge.TargetID,
	}
	var cypher string
	switch edge.Kind {
	case EdgeKindDefines:
		cypher = `MATCH (a:File {id: $src}), (b:Func {id: $dst})
				CREATE (a)-[:DEFINES]->(b)`
	case EdgeKindCalls:
		cypher = `MATCH (a:Func {id: $src}), (b:Func {id: $dst})
				CREATE (a)-[:CALLS {calls: $calls, cost: $cost}]->(b)`
		params["calls"] = int64(edge.Calls)
		params["cost"] = int64(edge.Cost)
	case EdgeKindBelongs:
		cypher = `MATCH (a:Func {id: $src}), (b:Cluster {name: $dst})
				CREATE (a)-[:BELONGS_TO]->(b)`
	default:
		return fmt.Errorf("kuzu: unsupported edge kind: %s", edge.Kind)
	}
	return s.exec(cypher, params)
}

// ---------- Read operations ----------

const functionColumns = `f.id, f.file_id, f.function_id, f.file, f.name, f.line_count, f.first_line, f.events`

// GetFile retrieves a single File node by id, or returns nil if not found.
func (s *KuzuStore) GetFile(_ context.Context, id string) (*FileNode, error) {
	rows, err := s.query(
		"MATCH (f:File {id: $id}) RETURN f.id, f.name",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &FileNode{ID: toString(rows[0][0]), Name: toString(rows[0][1])}, nil
}

// GetFunction retrieves a single Function node by key, or nil if not found.
func (s *KuzuStore) GetFunction(_ context.Context, key string) (*FunctionNode, error) {
	rows, err := s.query(
		"MATCH (f:Func {id: $fk}) RETURN "+functionColumns,
		map[string]any{"fk": key},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToFunction(rows[0])
}

// QueryFunctions returns functions whose name contains the query string,
// ignoring case, ordered by key. A limit <= 0 returns all matches.
func (s *KuzuStore) QueryFunctions(_ context.Context, queryStr string, limit int) ([]FunctionNode, error) {
	cypher := `MATCH (f:Func) WHERE lower(f.name) CONTAINS lower($q)
		 RETURN ` + functionColumns + ` ORDER BY f.id`
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	return rowsToFunctions(rows)
}

// TopFunctions ranks functions by event. Events live in a JSON column, so
// ranking happens after decoding.
func (s *KuzuStore) TopFunctions(_ context.Context, event string, limit int) ([]FunctionNode, error) {
	rows, err := s.query("MATCH (f:Func) RETURN "+functionColumns, nil)
	if err != nil {
		return nil, err
	}
	fns, err := rowsToFunctions(rows)
	if err != nil {
		return nil, err
	}
	return rankByEvent(fns, event, limit), nil
}

// ---------- Graph traversal ----------

// GetCalls performs a BFS over CALLS edges starting from the given function
// key. It returns one CallChain per reachable function.
func (s *KuzuStore) GetCalls(_ context.Context, key string, dir Direction, maxDepth int) ([]CallChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{key: true}
	queue := []bfsEntry{{path: []string{key}, depth: 0}}
	var chains []CallChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.callNeighbors(tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, CallChain{
				Nodes: newPath,
				Depth: cur.depth + 1,
			})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// callNeighbors returns immediate neighbors along CALLS edges.
func (s *KuzuStore) callNeighbors(key string, dir Direction) ([]string, error) {
	var cypher string
	switch dir {
	case DirectionCallees:
		cypher = "MATCH (a:Func {id: $fk})-[:CALLS]->(b:Func) RETURN b.id ORDER BY b.id"
	case DirectionCallers:
		cypher = "MATCH (a:Func)-[:CALLS]->(b:Func {id: $fk}) RETURN a.id ORDER BY a.id"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher, map[string]any{"fk": key})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// GetClusters returns all Cluster nodes with their members.
func (s *KuzuStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	rows, err := s.query(
		"MATCH (c:Cluster) RETURN c.name, c.cohesion_score ORDER BY c.name",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ClusterNode, 0, len(rows))
	for _, r := range rows {
		name := toString(r[0])
		memberRows, err := s.query(
			"MATCH (f:Func)-[:BELONGS_TO]->(c:Cluster {name: $name}) RETURN f.id ORDER BY f.id",
			map[string]any{"name": name},
		)
		if err != nil {
			return nil, err
		}
		members := make([]string, 0, len(memberRows))
		for _, mr := range memberRows {
			members = append(members, toString(mr[0]))
		}
		out = append(out, ClusterNode{
			Name:          name,
			CohesionScore: toFloat64(r[1]),
			Members:       members,
		})
	}
	return out, nil
}

// ---------- Edge enumeration ----------

// GetAllEdges returns all edges across all relationship tables.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	var edges []Edge

	rows, err := s.query("MATCH (a:File)-[:DEFINES]->(b:Func) RETURN a.id, b.id", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		edges = append(edges, Edge{SourceID: toString(r[0]), TargetID: toString(r[1]), Kind: EdgeKindDefines})
	}

	rows, err = s.query("MATCH (a:Func)-[r:CALLS]->(b:Func) RETURN a.id, b.id, r.calls, r.cost", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		edges = append(edges, Edge{
			SourceID: toString(r[0]),
			TargetID: toString(r[1]),
			Kind:     EdgeKindCalls,
			Calls:    toUint64(r[2]),
			Cost:     toUint64(r[3]),
		})
	}

	rows, err = s.query("MATCH (a:Func)-[:BELONGS_TO]->(b:Cluster) RETURN a.id, b.name", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		edges = append(edges, Edge{SourceID: toString(r[0]), TargetID: toString(r[1]), Kind: EdgeKindBelongs})
	}
	return edges, nil
}

// ---------- Stats ----------

// Stats returns counts of all node and edge tables.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	files, err := s.countTable("File")
	if err != nil {
		return nil, err
	}
	functions, err := s.countTable("Func")
	if err != nil {
		return nil, err
	}
	clusters, err := s.countTable("Cluster")
	if err != nil {
		return nil, err
	}
	edges := 0
	for _, t := range relTables {
		cypher := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", t)
		rows, err := s.query(cypher, nil)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			edges += toInt(rows[0][0])
		}
	}
	return &GraphStats{
		FileCount:     files,
		FunctionCount: functions,
		ClusterCount:  clusters,
		EdgeCount:     edges,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToFunction converts a functionColumns row into a FunctionNode.
func rowToFunction(r []any) (*FunctionNode, error) {
	fn := &FunctionNode{
		Key:        toString(r[0]),
		FileID:     toString(r[1]),
		FunctionID: toString(r[2]),
		File:       toString(r[3]),
		Name:       toString(r[4]),
		LineCount:  toInt(r[5]),
		FirstLine:  toUint64(r[6]),
		Events:     map[string]uint64{},
	}
	if raw := toString(r[7]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fn.Events); err != nil {
			return nil, fmt.Errorf("kuzu: decode events for %s: %w", fn.Key, err)
		}
	}
	return fn, nil
}

func rowsToFunctions(rows [][]any) ([]FunctionNode, error) {
	out := make([]FunctionNode, 0, len(rows))
	for _, r := range rows {
		fn, err := rowToFunction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *fn)
	}
	return out, nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case int64:
		return uint64(n)
	case uint64:
		return n
	case int:
		return uint64(n)
	case int32:
		return uint64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
