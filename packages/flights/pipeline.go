package flights

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"droneanalytics/packages/metrics"
)

// Batch - результат обработки набора строк
type Batch struct {
	Total   int
	Records []Record
	Skipped []Result
}

// Pipeline обрабатывает строки параллельно, сохраняя порядок исходной таблицы
type Pipeline struct {
	builder *Builder
	workers int
	logger  *zap.Logger
}

func NewPipeline(builder *Builder, workers int, logger *zap.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		builder: builder,
		workers: workers,
		logger:  logger,
	}
}

func (p *Pipeline) Run(ctx context.Context, rows []SourceRow) Batch {
	results := make([]Result, len(rows))

	workers := p.workers
	if workers > len(rows) {
		workers = len(rows)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.builder.Build(ctx, rows[idx])
			}
		}()
	}

	for idx := range rows {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	batch := Batch{Total: len(rows), Records: make([]Record, 0, len(rows))}
	for _, res := range results {
		if res.Skipped() {
			p.logger.Warn("Row skipped", zap.Int("row", res.Row), zap.String("reason", res.Reason))
			batch.Skipped = append(batch.Skipped, res)
			continue
		}
		batch.Records = append(batch.Records, *res.Record)
	}

	metrics.RowsProcessed.WithLabelValues(metrics.OutcomeParsed).Add(float64(len(batch.Records)))
	metrics.RowsProcessed.WithLabelValues(metrics.OutcomeSkipped).Add(float64(len(batch.Skipped)))

	p.logger.Info("Rows processed",
		zap.Int("total", batch.Total),
		zap.Int("records", len(batch.Records)),
		zap.Int("skipped", len(batch.Skipped)),
	)
	return batch
}
