package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/zappabad/squeeze/internal/broker"
	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/media"
)

// MarketReader provides read-only access to the engine.
type MarketReader interface {
	Snapshot() market.Snapshot
	Series() market.Series
}

// HypeReader provides read-only access to the hype detector.
type HypeReader interface {
	IsHype() bool
	Latest(n int) []media.Headline
}

// LedgerReader provides read-only access to the trader ledger.
type LedgerReader interface {
	Accounts() []broker.Account
	Recent(n int) []broker.Activity
}

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SnapshotResponse is the engine snapshot plus the hype flag.
type SnapshotResponse struct {
	market.Snapshot
	Hype  bool   `json:"hype"`
	RunID string `json:"run_id,omitempty"`
}

// HistoryResponse holds the tail of every engine history.
type HistoryResponse struct {
	Prices        []float64           `json:"prices"`
	Volumes       []market.VolumePair `json:"volumes"`
	ShortInterest []float64           `json:"short_interest"`
}

// TradersResponse holds the ledger accounts and recent activity.
type TradersResponse struct {
	Accounts []broker.Account  `json:"accounts"`
	Recent   []broker.Activity `json:"recent"`
}

const defaultLast = 100

var errBadLast = errors.New("last must be a positive integer")

// Handler serves the status API.
type Handler struct {
	market MarketReader
	hype   HypeReader
	ledger LedgerReader
	runID  string
}

// NewHandler creates a new Handler. hype and ledger may be nil.
func NewHandler(m MarketReader, h HypeReader, l LedgerReader, runID string) *Handler {
	return &Handler{market: m, hype: h, ledger: l, runID: runID}
}

// RegisterRoutes registers the API routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)

	api := e.Group("/api")
	api.GET("/snapshot", h.snapshot)
	api.GET("/history", h.history)
	api.GET("/traders", h.traders)
	api.GET("/headlines", h.headlines)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, APIResponse{Status: http.StatusOK, Message: "ok"})
}

func (h *Handler) snapshot(c echo.Context) error {
	resp := SnapshotResponse{Snapshot: h.market.Snapshot(), RunID: h.runID}
	if h.hype != nil {
		resp.Hype = h.hype.IsHype()
	}
	return success(c, resp)
}

func (h *Handler) history(c echo.Context) error {
	n, err := lastParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	series := h.market.Series()
	return success(c, HistoryResponse{
		Prices:        tail(series.Prices, n),
		Volumes:       tail(series.Volumes, n),
		ShortInterest: tail(series.ShortInterest, n),
	})
}

func (h *Handler) traders(c echo.Context) error {
	n, err := lastParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	resp := TradersResponse{Accounts: []broker.Account{}, Recent: []broker.Activity{}}
	if h.ledger != nil {
		resp.Accounts = h.ledger.Accounts()
		if recent := h.ledger.Recent(n); recent != nil {
			resp.Recent = recent
		}
	}
	return success(c, resp)
}

func (h *Handler) headlines(c echo.Context) error {
	n, err := lastParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	items := []media.Headline{}
	if h.hype != nil {
		if latest := h.hype.Latest(n); latest != nil {
			items = latest
		}
	}
	return success(c, items)
}

func lastParam(c echo.Context) (int, error) {
	v := c.QueryParam("last")
	if v == "" {
		return defaultLast, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errBadLast
	}
	return n, nil
}

func tail[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	if s == nil {
		return []T{}
	}
	return s
}

func success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, APIResponse{
		Status:  http.StatusBadRequest,
		Message: msg,
	})
}
