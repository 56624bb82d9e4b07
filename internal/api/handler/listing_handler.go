package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// ListingHandler handles HTTP requests for listing search and CRUD.
type ListingHandler struct {
	listings *service.ListingService
	resolver *service.RoleResolver
	runtimes *service.RuntimeManager
}

func NewListingHandler(listings *service.ListingService, resolver *service.RoleResolver, runtimes *service.RuntimeManager) *ListingHandler {
	return &ListingHandler{listings: listings, resolver: resolver, runtimes: runtimes}
}

// List handles GET /v1/listings.
//
// The effective filter is the principal's persisted search state with URL
// query parameters layered on top: a named parameter replaces only its own
// field, every other field keeps its saved value.
//
// @Summary      Search active listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        search         query     string  false  "Free-text term"
// @Param        category       query     string  false  "Category slug, or 'all'"
// @Param        location       query     string  false  "Location term"
// @Param        city           query     string  false  "City, or 'all'"
// @Param        property_type  query     string  false  "Property type, or 'all'"
// @Param        listing_type   query     string  false  "Listing type, or 'all'"
// @Param        min_price      query     number  false  "Minimum price"
// @Param        max_price      query     number  false  "Maximum price"
// @Success      200            {object}  listListingsResponse
// @Failure      401            {object}  errorResponse
// @Router       /v1/listings [get]
func (h *ListingHandler) List(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	overrides := map[string]string{}
	for _, name := range []string{"search", "category", "location"} {
		if v := c.QueryParam(name); v != "" {
			overrides[name] = v
		}
	}
	f := h.listings.RestoreFilter(ctx, principalID, overrides)

	if v := c.QueryParam("city"); v != "" {
		f.City = v
	}
	if v := c.QueryParam("property_type"); v != "" {
		f.PropertyType = v
	}
	if v := c.QueryParam("listing_type"); v != "" {
		f.ListingType = v
	}
	if v := c.QueryParam("min_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &p
		}
	}
	if v := c.QueryParam("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &p
		}
	}

	results, err := h.listings.Search(ctx, principalID, f)
	if err != nil {
		return err
	}

	favorites := h.runtimes.Get(ctx, principalID).Favorites
	data := make([]listingResponse, 0, len(results))
	for _, l := range results {
		data = append(data, toListingResponse(l, favorites.IsFavorited(l.ID)))
	}

	return c.JSON(http.StatusOK, listListingsResponse{Data: data, Total: len(data), Filter: f})
}

// Mine handles GET /v1/listings/mine: every listing the principal has
// posted, any status.
//
// @Summary      List own listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listListingsResponse
// @Router       /v1/listings/mine [get]
func (h *ListingHandler) Mine(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	results, err := h.listings.ListByOwner(ctx, principalID)
	if err != nil {
		return err
	}

	favorites := h.runtimes.Get(ctx, principalID).Favorites
	data := make([]listingResponse, 0, len(results))
	for _, l := range results {
		data = append(data, toListingResponse(l, favorites.IsFavorited(l.ID)))
	}
	return c.JSON(http.StatusOK, listListingsResponse{Data: data, Total: len(data)})
}

// Get handles GET /v1/listings/:id.
//
// @Summary      Get a listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/listings/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	l, err := h.listings.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	favorited := h.runtimes.Get(ctx, principalID).Favorites.IsFavorited(l.ID)
	return c.JSON(http.StatusOK, toListingResponse(l, favorited))
}

// Create handles POST /v1/listings.
//
// @Summary      Create a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      listingRequest  true  "Listing details"
// @Success      201   {object}  listingResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	l := req.toDomain()
	l.OwnerID = principalID

	created, err := h.listings.Create(c.Request().Context(), l)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toListingResponse(created, false))
}

// Update handles PUT /v1/listings/:id. Only the owner or a properties admin
// may update; status transitions are unconstrained.
//
// @Summary      Update a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Listing ID"
// @Param        body  body      listingRequest  true  "Listing details"
// @Success      200   {object}  listingResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/listings/{id} [put]
func (h *ListingHandler) Update(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	current, err := h.listings.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.authorize(ctx, principalID, current); err != nil {
		return err
	}

	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	l := req.toDomain()
	l.ID = current.ID
	l.OwnerID = current.OwnerID
	l.CreatedAt = current.CreatedAt
	if l.Status == "" {
		l.Status = current.Status
	}

	if err := h.listings.Update(ctx, l); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(l, false))
}

// Delete handles DELETE /v1/listings/:id. Only the owner or a properties
// admin may delete.
//
// @Summary      Delete a listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Listing ID"
// @Success      204  "no content"
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/listings/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	current, err := h.listings.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.authorize(ctx, principalID, current); err != nil {
		return err
	}

	if err := h.listings.Delete(ctx, current.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// authorize allows the owner, or any principal holding the properties-admin
// capability. Capability resolution fails open to the default user grant, so
// a broken role read denies non-owners rather than erroring.
func (h *ListingHandler) authorize(ctx context.Context, principalID string, l *domain.Listing) error {
	if l.OwnerID == principalID {
		return nil
	}
	if h.resolver.EffectivePermissions(ctx, principalID).PropertiesAdmin {
		return nil
	}
	return domain.ErrForbidden
}
