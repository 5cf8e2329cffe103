package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/shophub/storefront/internal/domain"
	"github.com/shophub/storefront/pkg/logger"
)

const maxBodyBytes = 10 << 20

// API is the set of backend operations the storefront depends on.
type API interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in domain.CreateProductInput) (*domain.Product, error)
	ListReviews(ctx context.Context, shoeID string) ([]domain.Review, error)
	CreateReview(ctx context.Context, in domain.CreateReviewInput) (*domain.Review, error)
	DeleteProduct(ctx context.Context, id string) (json.RawMessage, error)
	DeleteReview(ctx context.Context, id string) (json.RawMessage, error)
}

// Config holds the client configuration. BaseURL is always supplied by the
// caller; the package never reads the environment.
type Config struct {
	BaseURL string

	// Timeout bounds each call. 0 means no timeout.
	Timeout time.Duration

	Breaker BreakerConfig

	// Transport overrides the default round tripper, mainly for tests.
	Transport http.RoundTripper
}

// Client calls the shoe API. Every method performs exactly one HTTP request
// with no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *slog.Logger
	tracer     trace.Tracer
}

var _ API = (*Client)(nil)

// New validates cfg and builds a Client.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", cfg.BaseURL)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: log,
		tracer: otel.Tracer("github.com/shophub/storefront/internal/storeapi"),
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker, log)
	}
	return c, nil
}

// operation describes one backend call for logging, metrics and errors.
type operation struct {
	name    string
	failure error
}

var (
	opListProducts  = operation{"ListProducts", ErrFetchProducts}
	opCreateProduct = operation{"CreateProduct", ErrCreateProduct}
	opListReviews   = operation{"ListReviews", ErrFetchReviews}
	opCreateReview  = operation{"CreateReview", ErrCreateReview}
	opDeleteProduct = operation{"DeleteProduct", ErrDeleteProduct}
	opDeleteReview  = operation{"DeleteReview", ErrDeleteReview}
)

// ListProducts fetches the full catalog. A null body yields an empty slice.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.doJSON(ctx, opListProducts, http.MethodGet, "/api/shoes", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// CreateProduct posts a new product and returns the stored record.
func (c *Client) CreateProduct(ctx context.Context, in domain.CreateProductInput) (*domain.Product, error) {
	var product domain.Product
	if err := c.doJSON(ctx, opCreateProduct, http.MethodPost, "/api/shoes", in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListReviews fetches the reviews of one product.
func (c *Client) ListReviews(ctx context.Context, shoeID string) ([]domain.Review, error) {
	if shoeID == "" {
		return nil, fmt.Errorf("%s: %w", opListReviews.name, ErrMissingID)
	}

	var reviews []domain.Review
	if err := c.doJSON(ctx, opListReviews, http.MethodGet, "/api/ratings/"+url.PathEscape(shoeID), nil, &reviews); err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// CreateReview posts a new review and returns the stored record.
func (c *Client) CreateReview(ctx context.Context, in domain.CreateReviewInput) (*domain.Review, error) {
	var review domain.Review
	if err := c.doJSON(ctx, opCreateReview, http.MethodPost, "/api/ratings", in, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteProduct deletes a product and returns whatever body the backend sent.
func (c *Client) DeleteProduct(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: %w", opDeleteProduct.name, ErrMissingID)
	}
	return c.do(ctx, opDeleteProduct, http.MethodDelete, "/api/shoes/"+url.PathEscape(id), nil)
}

// DeleteReview deletes a review and returns whatever body the backend sent.
func (c *Client) DeleteReview(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: %w", opDeleteReview.name, ErrMissingID)
	}
	return c.do(ctx, opDeleteReview, http.MethodDelete, "/api/ratings/"+url.PathEscape(id), nil)
}

// Ping reports whether the backend answers HTTP at all. Any status counts as
// reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api/shoes", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	_ = resp.Body.Close()
	return nil
}

// BreakerState returns the breaker state, or StateClosed when the breaker
// is disabled.
func (c *Client) BreakerState() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

func (c *Client) doJSON(ctx context.Context, op operation, method, path string, body, out any) error {
	raw, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		requestsTotal.WithLabelValues(op.name, outcomeDecode).Inc()
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "backend response did not decode",
			slog.String("operation", op.name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s: %w", ErrDecode, op.name, err)
	}
	return nil
}

// do performs one request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, op operation, method, path string, body any) (json.RawMessage, error) {
	start := time.Now()
	log := logger.WithContext(ctx, c.logger)
	endpoint := c.baseURL + path

	ctx, span := c.tracer.Start(ctx, "storeapi."+op.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPURL(endpoint),
		),
	)
	defer span.End()
	defer func() {
		requestDuration.WithLabelValues(op.name).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op.name, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.send(req)
	if err != nil {
		var se *statusError
		switch {
		case errors.As(err, &se):
			responseStatusTotal.WithLabelValues(op.name, strconv.Itoa(se.code)).Inc()
			return nil, c.responseFailure(ctx, log, span, op, se.code, start)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			requestsTotal.WithLabelValues(op.name, outcomeCircuitOpen).Inc()
			span.SetStatus(codes.Error, err.Error())
			log.WarnContext(ctx, "backend call rejected by circuit breaker",
				slog.String("operation", op.name),
			)
			return nil, fmt.Errorf("%s: %w", op.name, err)
		default:
			requestsTotal.WithLabelValues(op.name, outcomeTransport).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "transport failure")
			log.ErrorContext(ctx, "backend call failed",
				slog.String("operation", op.name),
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)),
			)
			return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
		}
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(semconv.HTTPStatusCode(resp.StatusCode))
	responseStatusTotal.WithLabelValues(op.name, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, c.responseFailure(ctx, log, span, op, resp.StatusCode, start)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		requestsTotal.WithLabelValues(op.name, outcomeTransport).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("%w: %s %s: read body: %w", ErrTransport, method, path, err)
	}

	requestsTotal.WithLabelValues(op.name, outcomeSuccess).Inc()
	log.DebugContext(ctx, "backend call succeeded",
		slog.String("operation", op.name),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return raw, nil
}

// send runs the request, through the breaker when one is configured. With a
// breaker, 5xx answers come back as *statusError so they count as failures.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, &callerAbortError{err: err}
			}
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			return nil, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	})
}

func (c *Client) responseFailure(ctx context.Context, log *slog.Logger, span trace.Span, op operation, status int, start time.Time) error {
	requestsTotal.WithLabelValues(op.name, outcomeResponse).Inc()
	span.SetAttributes(semconv.HTTPStatusCode(status))
	span.SetStatus(codes.Error, op.failure.Error())
	log.WarnContext(ctx, "backend returned non-success status",
		slog.String("operation", op.name),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)
	return op.failure
}
