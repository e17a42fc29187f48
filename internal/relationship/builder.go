package relationship

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/models"
	"GraphRAG/internal/vectorops"
	"GraphRAG/pkg/logger"
)

// Strategy selects one edge-building policy. Strategies are not mutually
// exclusive; a run may execute several in sequence against the same store.
type Strategy string

const (
	// StrategyThreshold links every unordered pair whose cosine
	// similarity meets Config.Threshold (SEMANTICALLY_RELATED).
	StrategyThreshold Strategy = "threshold"
	// StrategyCrossModal links pairs of differing modality whose unified
	// embeddings meet Config.CrossModalThreshold (CROSS_MODAL_RELATED).
	StrategyCrossModal Strategy = "cross_modal"
	// StrategyTopK links each chunk to its K nearest neighbors
	// (EMBEDDING_SIM). Edges are directional per the ranking chunk and
	// deliberately not deduplicated across the unordered pair.
	StrategyTopK Strategy = "top_k"
	// StrategyTopicFull connects every pair within a topic group
	// (TOPIC_SIM, weight 1.0).
	StrategyTopicFull Strategy = "topic_full"
	// StrategyTopicPartial connects each chunk to the next TopicTopK
	// chunks in its topic group's stable ordering (TOPIC_SIM).
	StrategyTopicPartial Strategy = "topic_partial"
)

// similarityEpsilon absorbs float round-off when checking the [-1,1]
// bound; anything further out indicates malformed input.
const similarityEpsilon = 1e-6

// Config carries the tunables for all strategies. Values are validated at
// configuration load; the builder assumes they are sane.
type Config struct {
	Threshold           float64 // same-corpus similarity cutoff
	CrossModalThreshold float64 // cross-modality similarity cutoff
	TargetDim           int     // unified dimension for cross-modal comparison
	TopK                int     // neighbors per chunk for StrategyTopK
	TopicTopK           int     // neighbors per chunk for StrategyTopicPartial
	Workers             int     // similarity workers; 0 means GOMAXPROCS
}

// Report summarizes one strategy run. PairsSkipped counts data errors
// (dimension mismatches, out-of-range similarities, missing endpoints at
// write time), not pairs that simply scored below threshold.
type Report struct {
	Strategy     Strategy `json:"strategy"`
	Candidates   int      `json:"candidates"`
	EdgesCreated int      `json:"edges_created"`
	PairsSkipped int      `json:"pairs_skipped"`
}

// Builder produces the similarity-edge set for the stored chunk
// collection under a configurable strategy.
type Builder struct {
	store graphstore.ChunkStore
	cfg   Config
	log   *logger.Logger
}

// NewBuilder creates a Builder over the given store.
func NewBuilder(store graphstore.ChunkStore, cfg Config, log *logger.Logger) *Builder {
	return &Builder{store: store, cfg: cfg, log: log}
}

// Run executes the given strategies in order and returns one report per
// strategy. The first store-level failure aborts the run; data errors on
// individual pairs never do.
func (b *Builder) Run(ctx context.Context, strategies ...Strategy) ([]Report, error) {
	reports := make([]Report, 0, len(strategies))
	for _, strategy := range strategies {
		var (
			report Report
			err    error
		)
		switch strategy {
		case StrategyThreshold:
			report, err = b.BuildThreshold(ctx)
		case StrategyCrossModal:
			report, err = b.BuildCrossModal(ctx)
		case StrategyTopK:
			report, err = b.BuildTopK(ctx)
		case StrategyTopicFull:
			report, err = b.BuildTopic(ctx, true)
		case StrategyTopicPartial:
			report, err = b.BuildTopic(ctx, false)
		default:
			return reports, fmt.Errorf("relationship: unknown strategy %q", strategy)
		}
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// rowResult holds the scored neighbors of one candidate row. Workers fill
// disjoint rows; edges are emitted afterwards in row order, so the edge
// set is identical regardless of worker count.
type rowResult struct {
	pairs   []scoredPair
	skipped int
}

type scoredPair struct {
	j   int
	sim float64
}

// BuildThreshold links every unordered pair (i<j) whose similarity meets
// the configured threshold. The pairwise scan is O(n^2) in vector
// comparisons and dominates the cost of a relationship run.
func (b *Builder) BuildThreshold(ctx context.Context) (Report, error) {
	report := Report{Strategy: StrategyThreshold}
	chunks, err := b.store.ChunksWithEmbedding(ctx)
	if err != nil {
		return report, fmt.Errorf("threshold: failed to load candidates: %w", err)
	}
	report.Candidates = len(chunks)
	b.log.Info(fmt.Sprintf("Threshold strategy: %d candidate chunks, threshold %.2f", len(chunks), b.cfg.Threshold))
	if len(chunks) < 2 {
		return report, nil
	}

	rows := b.scoreRows(len(chunks), func(i int, row *rowResult) {
		for j := i + 1; j < len(chunks); j++ {
			sim, ok := b.pairSimilarity(chunks[i], chunks[j], row)
			if !ok {
				continue
			}
			if sim >= b.cfg.Threshold {
				row.pairs = append(row.pairs, scoredPair{j: j, sim: sim})
			}
		}
	})

	err = b.emitRows(ctx, chunks, rows, models.RelationSemantic, &report)
	b.logReport(report)
	return report, err
}

// BuildCrossModal links pairs of differing modality. Both embeddings are
// unified to Config.TargetDim before comparison; same-modality pairs are
// never linked.
func (b *Builder) BuildCrossModal(ctx context.Context) (Report, error) {
	report := Report{Strategy: StrategyCrossModal}
	chunks, err := b.store.ChunksWithEmbedding(ctx)
	if err != nil {
		return report, fmt.Errorf("cross_modal: failed to load candidates: %w", err)
	}
	report.Candidates = len(chunks)
	b.log.Info(fmt.Sprintf("Cross-modal strategy: %d candidate chunks, threshold %.2f, target dim %d",
		len(chunks), b.cfg.CrossModalThreshold, b.cfg.TargetDim))
	if len(chunks) < 2 {
		return report, nil
	}

	// Unify once up front rather than per pair.
	unified := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		unified[i] = vectorops.UnifyDimension(chunk.Embedding, b.cfg.TargetDim)
	}

	rows := b.scoreRows(len(chunks), func(i int, row *rowResult) {
		for j := i + 1; j < len(chunks); j++ {
			if chunks[i].Modality == chunks[j].Modality {
				continue
			}
			sim, err := vectorops.CosineSimilarity(unified[i], unified[j])
			if err != nil {
				// Unification fixes lengths, so a mismatch here means an
				// empty target dim slipped through; treat as data error.
				row.skipped++
				continue
			}
			if !similarityInRange(sim) {
				row.skipped++
				continue
			}
			if sim >= b.cfg.CrossModalThreshold {
				row.pairs = append(row.pairs, scoredPair{j: j, sim: sim})
			}
		}
	})

	err = b.emitRows(ctx, chunks, rows, models.RelationCrossModal, &report)
	b.logReport(report)
	return report, err
}

// BuildTopK links each chunk to its Config.TopK nearest neighbors. The
// edge i -> j exists when j ranks in i's top K; j -> i exists only when i
// also ranks in j's top K. Cosine similarity is symmetric, so both
// directions carry the same weight when both exist.
func (b *Builder) BuildTopK(ctx context.Context) (Report, error) {
	report := Report{Strategy: StrategyTopK}
	chunks, err := b.store.ChunksWithEmbedding(ctx)
	if err != nil {
		return report, fmt.Errorf("top_k: failed to load candidates: %w", err)
	}
	report.Candidates = len(chunks)
	b.log.Info(fmt.Sprintf("Top-K strategy: %d candidate chunks, k=%d", len(chunks), b.cfg.TopK))
	if len(chunks) < 2 {
		return report, nil
	}

	rows := b.scoreRows(len(chunks), func(i int, row *rowResult) {
		scored := make([]scoredPair, 0, len(chunks)-1)
		for j := range chunks {
			if j == i {
				continue
			}
			sim, ok := b.pairSimilarity(chunks[i], chunks[j], row)
			if !ok {
				continue
			}
			scored = append(scored, scoredPair{j: j, sim: sim})
		}
		// Descending similarity; index ascending on ties keeps the
		// neighbor choice stable across runs and worker counts.
		sort.Slice(scored, func(x, y int) bool {
			if scored[x].sim != scored[y].sim {
				return scored[x].sim > scored[y].sim
			}
			return scored[x].j < scored[y].j
		})
		if len(scored) > b.cfg.TopK {
			scored = scored[:b.cfg.TopK]
		}
		row.pairs = scored
	})

	err = b.emitRows(ctx, chunks, rows, models.RelationEmbedding, &report)
	b.logReport(report)
	return report, err
}

// BuildTopic links chunks sharing a topic id. Full-clique mode connects
// every pair in a group; partial mode connects chunk i only to the next
// Config.TopicTopK chunks in the group's stable ordering, capping edges
// at O(n*k) per group instead of O(n^2).
func (b *Builder) BuildTopic(ctx context.Context, fullClique bool) (Report, error) {
	strategy := StrategyTopicPartial
	if fullClique {
		strategy = StrategyTopicFull
	}
	report := Report{Strategy: strategy}

	chunks, err := b.store.ChunksWithTopic(ctx)
	if err != nil {
		return report, fmt.Errorf("%s: failed to load candidates: %w", strategy, err)
	}
	report.Candidates = len(chunks)
	b.log.Info(fmt.Sprintf("Topic strategy (%s): %d chunks carry a topic id", strategy, len(chunks)))
	if len(chunks) < 2 {
		return report, nil
	}

	// Group members keep the store's id ordering, and topics are visited
	// in sorted order, so partial-mode neighbor selection is stable.
	groups := make(map[string][]string)
	for _, chunk := range chunks {
		groups[*chunk.TopicID] = append(groups[*chunk.TopicID], chunk.ID)
	}
	topicIDs := make([]string, 0, len(groups))
	for topicID := range groups {
		topicIDs = append(topicIDs, topicID)
	}
	sort.Strings(topicIDs)

	for _, topicID := range topicIDs {
		members := groups[topicID]
		if len(members) < 2 {
			continue
		}
		for i := range members {
			upper := len(members)
			if !fullClique {
				upper = i + 1 + b.cfg.TopicTopK
				if upper > len(members) {
					upper = len(members)
				}
			}
			for j := i + 1; j < upper; j++ {
				if err := b.writeEdge(ctx, members[i], members[j], models.RelationTopic, 1.0, &report); err != nil {
					return report, err
				}
			}
		}
	}
	b.logReport(report)
	return report, nil
}

// pairSimilarity scores one pair, treating dimension mismatches and
// out-of-range results as data errors counted on the row.
func (b *Builder) pairSimilarity(a, c models.ChunkRecord, row *rowResult) (float64, bool) {
	sim, err := vectorops.CosineSimilarity(a.Embedding, c.Embedding)
	if err != nil {
		row.skipped++
		return 0, false
	}
	if !similarityInRange(sim) {
		row.skipped++
		return 0, false
	}
	return sim, true
}

// scoreRows fans the row indices out over a bounded worker pool. Each
// worker writes only its own rows, so no locking is needed and the
// result is independent of scheduling.
func (b *Builder) scoreRows(n int, score func(i int, row *rowResult)) []rowResult {
	workers := b.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	rows := make([]rowResult, n)
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				score(i, &rows[i])
			}
		}()
	}
	for i := 0; i < n; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return rows
}

// emitRows writes the collected edges in row-major order.
func (b *Builder) emitRows(ctx context.Context, chunks []models.ChunkRecord, rows []rowResult, relType models.RelationType, report *Report) error {
	for i := range rows {
		report.PairsSkipped += rows[i].skipped
		for _, pair := range rows[i].pairs {
			if err := b.writeEdge(ctx, chunks[i].ID, chunks[pair.j].ID, relType, pair.sim, report); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeEdge persists one edge. A missing endpoint is a data error: the
// edge is skipped and the batch continues. Any other store error aborts
// the run.
func (b *Builder) writeEdge(ctx context.Context, fromID, toID string, relType models.RelationType, weight float64, report *Report) error {
	err := b.store.UpsertEdge(ctx, fromID, toID, relType, weight)
	if err != nil {
		if errors.Is(err, graphstore.ErrNodeNotFound) {
			b.log.Warn(fmt.Sprintf("Skipping %s edge %s -> %s: endpoint not persisted", relType, fromID, toID))
			report.PairsSkipped++
			return nil
		}
		return fmt.Errorf("failed to persist %s edge %s -> %s: %w", relType, fromID, toID, err)
	}
	report.EdgesCreated++
	return nil
}

func (b *Builder) logReport(report Report) {
	b.log.WithPayload(map[string]interface{}{
		"strategy":      report.Strategy,
		"candidates":    report.Candidates,
		"edges_created": report.EdgesCreated,
		"pairs_skipped": report.PairsSkipped,
	}).Info("Strategy run complete")
}

func similarityInRange(sim float64) bool {
	return sim >= -1-similarityEpsilon && sim <= 1+similarityEpsilon
}
