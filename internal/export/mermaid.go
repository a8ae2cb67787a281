package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/cgprof/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a graph store.
// Functions are grouped by file; CALLS edges become arrows labeled with the
// call count.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	functions, err := store.QueryFunctions(ctx, "", 0)
	if err != nil {
		return "", fmt.Errorf("get functions: %w", err)
	}

	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	byFile := make(map[string][]graph.FunctionNode)
	var fileIDs []string
	for _, fn := range functions {
		if _, ok := byFile[fn.FileID]; !ok {
			fileIDs = append(fileIDs, fn.FileID)
		}
		byFile[fn.FileID] = append(byFile[fn.FileID], fn)
	}
	sort.Strings(fileIDs)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, fileID := range fileIDs {
		label := fileID
		if f, err := store.GetFile(ctx, fileID); err != nil {
			return "", fmt.Errorf("get file %s: %w", fileID, err)
		} else if f != nil && f.Name != "" {
			label = f.Name
		}
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", getID("file:"+fileID), mermaidLabel(label)))
		for _, fn := range byFile[fileID] {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(fn.Key), mermaidLabel(fn.Name)))
		}
		sb.WriteString("  end\n")
	}

	for _, e := range edges {
		if e.Kind != graph.EdgeKindCalls {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s -->|%d calls| %s\n", getID(e.SourceID), e.Calls, getID(e.TargetID)))
	}

	return sb.String(), nil
}

var labelEscaper = strings.NewReplacer(
	`"`, "#quot;",
	"<", "#lt;",
	">", "#gt;",
)

// mermaidLabel escapes characters Mermaid treats as markup in quoted labels.
func mermaidLabel(s string) string {
	return labelEscaper.Replace(s)
}
