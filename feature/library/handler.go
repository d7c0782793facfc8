package library

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/logger"
	"collection-sync/core/scheduler"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultHeartbeat = 15 * time.Second

// ItemsResponse is one partition of a kind.
type ItemsResponse struct {
	Kind      catalog.Kind      `json:"kind"`
	Partition catalog.Partition `json:"partition"`
	Count     int               `json:"count"`
	Items     []*catalog.Item   `json:"items"`
}

// SnapshotResponse is a partition snapshot used by subscribers to resync.
type SnapshotResponse struct {
	ItemsResponse
	At time.Time `json:"at"`
}

// Handler handles HTTP requests for the library.
type Handler struct {
	service   *Service
	auth      fiber.Handler
	heartbeat time.Duration
}

// NewHandler creates a new HTTP handler. auth guards the admin routes.
func NewHandler(service *Service, auth fiber.Handler) *Handler {
	return &Handler{service: service, auth: auth, heartbeat: defaultHeartbeat}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/library")
	group.Get("/status", h.HandleStatus)
	group.Get("/:kind/collection", h.HandlePartition(catalog.Collection))
	group.Get("/:kind/wishlist", h.HandlePartition(catalog.Wishlist))
	group.Get("/:kind/items/:id", h.HandleItem)
	group.Get("/:kind/snapshot/:partition", h.HandleSnapshot)
	group.Post("/:kind/sync", h.auth, h.HandleSync)

	app.Get("/events", h.HandleEvents)
	app.Post("/cache/refresh", h.auth, h.HandleRefreshCache)
}

func kindParam(c *fiber.Ctx) (catalog.Kind, error) {
	kind, err := catalog.ParseKind(c.Params("kind"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return kind, nil
}

func errorJSON(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// HandlePartition returns one partition of a kind.
// @Summary List Collection Or Wishlist
// @Description Returns the cached items of one partition, sorted by title.
// @Tags library
// @Produce json
// @Param kind path string true "Item kind" Enums(record, boardgame, book)
// @Success 200 {object} ItemsResponse
// @Failure 400 {object} map[string]string "Unknown kind"
// @Router /library/{kind}/collection [get]
// @Router /library/{kind}/wishlist [get]
func (h *Handler) HandlePartition(partition catalog.Partition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := kindParam(c)
		if err != nil {
			return errorJSON(c, err)
		}
		items := h.service.Items(kind, partition)
		return c.JSON(ItemsResponse{Kind: kind, Partition: partition, Count: len(items), Items: items})
	}
}

// HandleItem returns a single item.
// @Summary Get Item
// @Description Looks an item up by canonical id in either partition.
// @Tags library
// @Produce json
// @Param kind path string true "Item kind" Enums(record, boardgame, book)
// @Param id path string true "Canonical id, e.g. record482"
// @Success 200 {object} catalog.Item
// @Failure 400 {object} map[string]string "Unknown kind"
// @Failure 404 {object} map[string]string "Not found"
// @Router /library/{kind}/items/{id} [get]
func (h *Handler) HandleItem(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return errorJSON(c, err)
	}
	item, ok := h.service.Item(kind, c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
	}
	return c.JSON(item)
}

// HandleSnapshot returns a full partition for subscribers correcting drift.
// @Summary Partition Snapshot
// @Description Returns a full, timestamped copy of one partition. Event subscribers call it after reconnecting or after a cache_cleared event.
// @Tags library
// @Produce json
// @Param kind path string true "Item kind" Enums(record, boardgame, book)
// @Param partition path string true "Partition" Enums(collection, wishlist)
// @Success 200 {object} SnapshotResponse
// @Failure 400 {object} map[string]string "Unknown kind or partition"
// @Router /library/{kind}/snapshot/{partition} [get]
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return errorJSON(c, err)
	}
	partition, err := catalog.ParsePartition(c.Params("partition"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	items := h.service.Items(kind, partition)
	return c.JSON(SnapshotResponse{
		ItemsResponse: ItemsResponse{Kind: kind, Partition: partition, Count: len(items), Items: items},
		At:            time.Now().UTC(),
	})
}

// HandleSync starts a cycle for one kind.
// @Summary Sync Now
// @Description Starts a reconciliation cycle for the kind in the background unless one is already running.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param kind path string true "Item kind" Enums(record, boardgame, book)
// @Success 202 {object} map[string]string "Started"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No provider configured"
// @Failure 409 {object} map[string]string "Cycle in progress"
// @Router /library/{kind}/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	kind, err := kindParam(c)
	if err != nil {
		return errorJSON(c, err)
	}

	err = h.service.Sync(kind)
	switch {
	case err == nil:
		l.Info("Sync triggered", zap.String("kind", string(kind)))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started", "kind": kind})
	case errors.Is(err, scheduler.ErrInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrUnknownKind):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrStopped):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Failed to trigger sync", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// HandleStatus reports scheduler jobs and cache sizes.
// @Summary Sync Status
// @Description Returns the state of each provider job, the cached partition sizes and the number of event subscribers.
// @Tags library
// @Produce json
// @Success 200 {object} map[string]interface{} "Status"
// @Router /library/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"jobs":        h.service.Status(),
		"counts":      h.service.Counts(),
		"subscribers": h.service.Subscribers(),
	})
}

// HandleRefreshCache reloads the cache from the Document Store.
// @Summary Refresh Cache
// @Description Rebuilds the in-memory cache from the Document Store and emits cache_cleared to subscribers.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "Per kind counts"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /cache/refresh [post]
func (h *Handler) HandleRefreshCache(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	counts, err := h.service.RefreshCache(c.Context())
	if err != nil {
		l.Error("Cache refresh failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "refreshed", "counts": counts})
}

// HandleEvents streams change events as server-sent events.
// @Summary Change Events
// @Description Streams added, updated, removed, sync_started and cache_cleared events. Delivery is best effort; clients resync through the snapshot route.
// @Tags library
// @Produce text/event-stream
// @Param kind query string false "Comma separated kinds to receive"
// @Success 200 {object} notify.Event
// @Failure 400 {object} map[string]string "Unknown kind"
// @Router /events [get]
func (h *Handler) HandleEvents(c *fiber.Ctx) error {
	var kinds []catalog.Kind
	if raw := c.Query("kind"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			kind, err := catalog.ParseKind(strings.TrimSpace(part))
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			kinds = append(kinds, kind)
		}
	}

	l := logger.WithRayID(h.service.logger, c)
	sub := h.service.Subscribe(kinds...)
	l.Debug("Event stream opened", zap.String("subscriber", sub.ID()))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	heartbeat := h.heartbeat
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		// Flush headers so clients see the stream open.
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					l.Debug("Event stream closed", zap.String("subscriber", sub.ID()))
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					l.Warn("Failed to marshal event", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.EventKind, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				l.Debug("Event stream client gone", zap.String("subscriber", sub.ID()))
				return
			}
		}
	}))
	return nil
}
