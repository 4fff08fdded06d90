// Package model wraps the trained disease classifier.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
)

// Session runs a loaded model on one flattened input tensor.
type Session interface {
	Run(input []float32) ([]float32, error)
	Metadata() Metadata
	Close() error
}

var errClosed = errors.New("classifier closed")

// Loader opens a model artifact. It is called at most once per Classifier.
type Loader func() (Session, error)

// Classifier loads the model on first use and shares it afterwards. A failed
// load is never retried: every later call reports ErrModelUnavailable.
type Classifier struct {
	load    Loader
	catalog *catalog.Catalog
	logger  *slog.Logger

	once    sync.Once
	session Session
	loadErr error

	closeOnce sync.Once
}

func NewClassifier(load Loader, cat *catalog.Catalog, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		load:    load,
		catalog: cat,
		logger:  logger,
	}
}

// Load initializes the model if it has not been attempted yet and returns
// the outcome of that single attempt.
func (c *Classifier) Load() error {
	c.once.Do(c.initialize)
	return c.loadErr
}

// Ready reports whether the model loaded successfully.
func (c *Classifier) Ready() bool {
	return c.Load() == nil
}

// Metadata returns the loaded model's metadata.
func (c *Classifier) Metadata() (Metadata, error) {
	if err := c.Load(); err != nil {
		return Metadata{}, err
	}
	return c.session.Metadata(), nil
}

func (c *Classifier) initialize() {
	start := time.Now()

	if c.load == nil {
		c.loadErr = domain.WrapError(domain.ErrModelUnavailable, "load model", errors.New("no loader configured"))
		return
	}

	session, err := c.load()
	if err == nil && session == nil {
		err = errors.New("loader returned no session")
	}
	if err == nil {
		if verr := c.validate(session.Metadata()); verr != nil {
			_ = session.Close()
			err = verr
		}
	}
	if err != nil {
		c.loadErr = domain.WrapError(domain.ErrModelUnavailable, "load model", err)
		c.logger.Error("model_load_failed", "error", err)
		return
	}

	c.session = session
	c.logger.Info("model_loaded",
		"classes", c.catalog.Len(),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
}

func (c *Classifier) validate(metadata Metadata) error {
	if len(metadata.Classes) > 0 {
		if err := c.catalog.ValidateClasses(metadata.Classes); err != nil {
			return fmt.Errorf("catalog mismatch: %w", err)
		}
		return nil
	}
	if err := c.catalog.ValidateOutputSize(metadata.OutputSize()); err != nil {
		return fmt.Errorf("catalog mismatch: %w", err)
	}
	return nil
}

// Predict runs the classifier once. It does not retry.
func (c *Classifier) Predict(tensor imaging.Tensor) (ProbabilityVector, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}

	if len(tensor.Data) != imaging.Len() {
		return nil, domain.WrapError(domain.ErrInference, "predict",
			fmt.Errorf("input has %d values, expected %d", len(tensor.Data), imaging.Len()))
	}

	out, err := c.session.Run(tensor.Data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInference, "predict", err)
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrInference, "predict", errors.New("model returned no scores"))
	}
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, domain.WrapError(domain.ErrInference, "predict", fmt.Errorf("score %d is %v", i, v))
		}
	}
	return ProbabilityVector(out), nil
}

// Close releases the model. It never triggers a load: a classifier closed
// before first use stays unavailable.
func (c *Classifier) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.once.Do(func() {
			c.loadErr = domain.WrapError(domain.ErrModelUnavailable, "load model", errClosed)
		})
		if c.session == nil {
			return
		}
		err = c.session.Close()
	})
	return err
}
