package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/service"
)

// FavoriteHandler exposes the principal's favorites cache: synchronous
// membership reads plus the confirm-only toggle.
type FavoriteHandler struct {
	runtimes *service.RuntimeManager
}

func NewFavoriteHandler(runtimes *service.RuntimeManager) *FavoriteHandler {
	return &FavoriteHandler{runtimes: runtimes}
}

type favoritesResponse struct {
	ListingIDs []string `json:"listing_ids"`
	// State reports how trustworthy the set is: "unknown", "local_guess"
	// (persisted snapshot, remote not yet confirmed), or "confirmed".
	State string `json:"state"`
}

type toggleResponse struct {
	ListingID string `json:"listing_id"`
	Favorited bool   `json:"favorited"`
}

func cacheStateString(s service.CacheState) string {
	switch s {
	case service.CacheLocalGuess:
		return "local_guess"
	case service.CacheConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// List handles GET /v1/favorites.
//
// @Summary      List favorited listing IDs
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  favoritesResponse
// @Router       /v1/favorites [get]
func (h *FavoriteHandler) List(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	cache := h.runtimes.Get(c.Request().Context(), principalID).Favorites
	return c.JSON(http.StatusOK, favoritesResponse{
		ListingIDs: cache.ListingIDs(),
		State:      cacheStateString(cache.State()),
	})
}

// Toggle handles POST /v1/favorites/:listing_id/toggle. The local set is
// only mutated after the remote write is confirmed; on failure the previous
// state is preserved and an error returned.
//
// @Summary      Toggle a favorite
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        listing_id  path      string  true  "Listing ID"
// @Success      200         {object}  toggleResponse
// @Failure      500         {object}  errorResponse
// @Router       /v1/favorites/{listing_id}/toggle [post]
func (h *FavoriteHandler) Toggle(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	listingID := c.Param("listing_id")
	if listingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing listing id")
	}

	cache := h.runtimes.Get(c.Request().Context(), principalID).Favorites
	if err := cache.Toggle(c.Request().Context(), listingID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toggleResponse{
		ListingID: listingID,
		Favorited: cache.IsFavorited(listingID),
	})
}
