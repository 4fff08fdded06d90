package handlers

import (
	"net/http"

	"golang.org/x/time/rate"
)

type RouterOptions struct {
	CORSAllowOrigin  string
	PredictRateRPS   float64
	PredictRateBurst int
	// MetricsHandler is mounted at /metrics and Middleware wraps every
	// request when set.
	MetricsHandler http.Handler
	Middleware     func(http.Handler) http.Handler
}

// Routes builds the HTTP surface of the service.
func (h *Handler) Routes(opts RouterOptions) http.Handler {
	var limiter *rate.Limiter
	if opts.PredictRateRPS > 0 {
		burst := opts.PredictRateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.PredictRateRPS), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/catalog", h.Catalog)
	mux.HandleFunc("/predict/image", rateLimit(limiter, h.PredictFromImage))
	if h.opts.EnableRawTensorAPI {
		mux.HandleFunc("/predict", rateLimit(limiter, h.Predict))
	}
	mux.HandleFunc("/feedback", h.Feedback)
	mux.HandleFunc("/contact", h.Contact)
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}

	origin := opts.CORSAllowOrigin
	if origin == "" {
		origin = "*"
	}

	var handler http.Handler = corsMiddleware(origin, mux)
	if opts.Middleware != nil {
		handler = opts.Middleware(handler)
	}
	handler = accessLogMiddleware(h.logger, handler)
	return requestIDMiddleware(handler)
}
