package diagnosis

import (
	"context"
	"log/slog"
	"time"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
	"github.com/Brownie44l1/plant-disease-api/internal/logging"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

type Normalizer interface {
	Normalize(raw []byte) (imaging.Tensor, error)
}

type Predictor interface {
	Predict(tensor imaging.Tensor) (model.ProbabilityVector, error)
}

// Observer receives one call per finished diagnosis.
type Observer interface {
	ObserveDiagnosis(outcome, label string, duration time.Duration)
}

type Pipeline struct {
	normalizer Normalizer
	predictor  Predictor
	catalog    *catalog.Catalog
	observer   Observer
	logger     *slog.Logger
}

func NewPipeline(normalizer Normalizer, predictor Predictor, cat *catalog.Catalog, observer Observer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: normalizer,
		predictor:  predictor,
		catalog:    cat,
		observer:   observer,
		logger:     logger,
	}
}

func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Diagnose runs the full pipeline on uploaded image bytes. Either a complete
// record or an error is returned. The context only carries request metadata;
// inference is not cancellable.
func (p *Pipeline) Diagnose(ctx context.Context, raw []byte) (Record, error) {
	start := time.Now()

	tensor, err := p.normalizer.Normalize(raw)
	if err != nil {
		return Record{}, p.finish(ctx, start, Record{}, err)
	}
	record, err := p.classify(tensor)
	return record, p.finish(ctx, start, record, err)
}

// DiagnoseTensor skips normalization for callers that already hold a
// preprocessed tensor.
func (p *Pipeline) DiagnoseTensor(ctx context.Context, tensor imaging.Tensor) (Record, error) {
	start := time.Now()
	record, err := p.classify(tensor)
	return record, p.finish(ctx, start, record, err)
}

func (p *Pipeline) classify(tensor imaging.Tensor) (Record, error) {
	scores, err := p.predictor.Predict(tensor)
	if err != nil {
		return Record{}, err
	}
	prediction, err := Interpret(scores, p.catalog.Len())
	if err != nil {
		return Record{}, err
	}
	return Compose(prediction, p.catalog)
}

func (p *Pipeline) finish(ctx context.Context, start time.Time, record Record, err error) error {
	duration := time.Since(start)
	attrs := []any{
		"request_id", logging.RequestIDFromContext(ctx),
		"duration_ms", float64(duration.Microseconds()) / 1000.0,
	}

	outcome := "ok"
	switch {
	case err == nil:
		p.logger.Info("diagnosis",
			append(attrs, "disease", record.Disease, "confidence", record.Confidence)...)
	case domain.IsKind(err, domain.ErrInvalidImage):
		outcome = domain.KindName(err)
		p.logger.Warn("diagnosis_rejected", append(attrs, "kind", outcome, "error", err)...)
	default:
		// Out-of-range means the deployed model and catalog disagree.
		outcome = domain.KindName(err)
		p.logger.Error("diagnosis_failed", append(attrs, "kind", outcome, "error", err)...)
	}

	if p.observer != nil {
		p.observer.ObserveDiagnosis(outcome, record.Disease, duration)
	}
	return err
}
