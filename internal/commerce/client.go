package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	opListSubcategories = "list_subcategories"
	opQuantityPrice     = "calculate_quantity_price"
	opCartPrices        = "calculate_cart_prices"
	opValidateCoupon    = "validate_coupon"

	maxErrorBody = 4 << 10
	userAgent    = "storefront-bff/1.0"
)

// Client talks to the remote commerce backend (products, coupons).
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        config.CommerceConfig
	metrics    *metrics.PricingMetrics
	logg       *logger.Logger
}

// New builds a commerce client. A nil httpClient uses one with cfg.Timeout.
func New(cfg config.CommerceConfig, httpClient *http.Client, m *metrics.PricingMetrics, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("commerce base url required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid commerce base url: %w", err)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		cfg:        cfg,
		metrics:    m,
		logg:       logg,
	}, nil
}

// ListSubcategoriesWithPricing fetches every subcategory with its quantity-tier rules.
func (c *Client) ListSubcategoriesWithPricing(ctx context.Context) ([]SubcategoryRecord, error) {
	var records []SubcategoryRecord
	if err := c.call(ctx, opListSubcategories, http.MethodGet, "/products/subcategories/with-pricing", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CalculateQuantityPrice asks the backend to price a single product at a quantity.
func (c *Client) CalculateQuantityPrice(ctx context.Context, req QuantityPriceRequest) (QuantityPrice, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return QuantityPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if req.Quantity < 1 {
		return QuantityPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	path := "/products/" + url.PathEscape(req.ProductID) + "/calculate-quantity-price"

	var out quantityPricePayload
	if err := c.call(ctx, opQuantityPrice, http.MethodPost, path, req, &out); err != nil {
		return QuantityPrice{}, err
	}
	if !out.FinalPrice.Valid {
		return QuantityPrice{}, pkgerrors.New(pkgerrors.CodeDependency, "commerce quantity price missing finalPrice").
			WithDetails(map[string]any{"operation": opQuantityPrice, "product_id": req.ProductID})
	}
	return QuantityPrice{
		FinalPrice:         out.FinalPrice.Decimal,
		OriginalPrice:      out.OriginalPrice,
		ApplicableDiscount: out.ApplicableDiscount,
		TotalSavings:       out.TotalSavings,
	}, nil
}

// CalculateCartPrices prices a whole cart in one call.
func (c *Client) CalculateCartPrices(ctx context.Context, lines []CartPriceLine) (CartPrices, error) {
	if len(lines) == 0 {
		return CartPrices{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	var out CartPrices
	if err := c.call(ctx, opCartPrices, http.MethodPost, "/products/calculate-cart-prices", cartPricesRequest{Items: lines}, &out); err != nil {
		return CartPrices{}, err
	}
	return out, nil
}

// ValidateCoupon checks a coupon against the current subtotal.
func (c *Client) ValidateCoupon(ctx context.Context, req CouponRequest) (Coupon, error) {
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return Coupon{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	var out Coupon
	if err := c.call(ctx, opValidateCoupon, http.MethodPost, "/coupons/validate", req, &out); err != nil {
		return Coupon{}, err
	}
	if out.Code == "" {
		out.Code = req.Code
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, body any, out any) error {
	start := time.Now()
	err := c.do(ctx, op, method, path, body, out)
	c.metrics.ObserveBackend(op, time.Since(start), err)
	if err != nil {
		c.logg.WarnErr(c.logg.WithFields(ctx, map[string]any{"operation": op, "path": path}), "commerce call failed", err)
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode commerce request")
		}
		payload = encoded
	}
	target := c.baseURL + path

	var (
		attempts    int
		lastStatus  int
		lastErr     error
		lastMessage string
	)
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commerce rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader(payload))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce request")
		}
		c.setHeaders(ctx, req, payload != nil)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			if attempt < c.cfg.MaxRetries {
				if sleepErr := sleep(ctx, backoff(attempt, c.cfg.InitialBackoff, c.cfg.MaxBackoff)); sleepErr != nil {
					break
				}
			}
			continue
		}

		lastStatus = resp.StatusCode
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return decodeEnvelope(op, resp, out)
		}

		lastMessage = readErrorMessage(resp)
		if !isRetryableStatus(resp.StatusCode) || attempt == c.cfg.MaxRetries {
			break
		}

		var delay time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			delay = rateLimitBackoff(attempt, c.cfg.InitialBackoff, c.cfg.MaxBackoff, resp.Header.Get("Retry-After"))
		} else {
			delay = backoff(attempt, c.cfg.InitialBackoff, c.cfg.MaxBackoff)
		}
		if err := sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	retryErr := &RetryError{
		Operation:  op,
		URL:        target,
		Attempts:   attempts,
		LastStatus: lastStatus,
		Message:    lastMessage,
		LastError:  lastErr,
	}
	return classify(op, retryErr)
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.ForwardAuthToken {
		if token := auth.BearerFromContext(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

func decodeEnvelope(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce response").
			WithDetails(map[string]any{"operation": op})
	}
	if env.Success != nil && !*env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "commerce request rejected"
		}
		return pkgerrors.New(pkgerrors.CodeValidation, msg).
			WithDetails(map[string]any{"operation": op, "status": resp.StatusCode})
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce payload").
			WithDetails(map[string]any{"operation": op})
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var env envelope
	if json.Unmarshal(raw, &env) == nil && strings.TrimSpace(env.Message) != "" {
		return strings.TrimSpace(env.Message)
	}
	return ""
}

// classify maps an exhausted call onto the typed error codes used across the service.
func classify(op string, retryErr *RetryError) error {
	details := map[string]any{"operation": op}
	if retryErr.LastStatus != 0 {
		details["status"] = retryErr.LastStatus
	}

	message := retryErr.Message
	if message == "" {
		message = fmt.Sprintf("commerce %s failed", strings.ReplaceAll(op, "_", " "))
	}

	code := pkgerrors.CodeDependency
	switch status := retryErr.LastStatus; {
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status == http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	case status == http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case status >= 400 && status < 500:
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.Wrap(code, retryErr, message).WithDetails(details)
}

// BackendMessage extracts the backend-provided message from a commerce error, if any.
func BackendMessage(err error) string {
	var retryErr *RetryError
	if errors.As(err, &retryErr) {
		return retryErr.Message
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
		return typed.Message()
	}
	return ""
}
