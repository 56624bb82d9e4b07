package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// CategoryHandler handles the category taxonomy. Reads are open to any
// authenticated principal; writes are gated behind the categories-admin
// capability by the router.
type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type customFieldRequest struct {
	Name     string   `json:"name" validate:"required"`
	Label    string   `json:"label" validate:"required"`
	Type     string   `json:"type" validate:"required"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

type categoryRequest struct {
	Title        string               `json:"title" validate:"required"`
	Slug         string               `json:"slug" validate:"required"`
	ParentID     string               `json:"parent_id"`
	CustomFields []customFieldRequest `json:"custom_fields" validate:"dive"`
}

func (r categoryRequest) toDomain() *domain.Category {
	fields := make([]domain.CustomField, 0, len(r.CustomFields))
	for _, f := range r.CustomFields {
		fields = append(fields, domain.CustomField{
			Name:     f.Name,
			Label:    f.Label,
			Type:     domain.ParseFieldType(f.Type),
			Required: f.Required,
			Options:  f.Options,
		})
	}
	return &domain.Category{
		Title:        r.Title,
		Slug:         r.Slug,
		ParentID:     r.ParentID,
		CustomFields: fields,
	}
}

// List handles GET /v1/categories.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Category
// @Router       /v1/categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	cats, err := h.categories.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

// Get handles GET /v1/categories/:slug.
//
// @Summary      Get a category by slug
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Category slug"
// @Success      200   {object}  domain.Category
// @Failure      404   {object}  errorResponse
// @Router       /v1/categories/{slug} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	cat, err := h.categories.Get(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Create handles POST /v1/categories. Slugs are normalized and must be
// unique; a duplicate maps to 409.
//
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      categoryRequest  true  "Category details"
// @Success      201   {object}  domain.Category
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.categories.Create(c.Request().Context(), req.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /v1/categories/:id. The slug is immutable.
//
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Category ID"
// @Param        body  body      categoryRequest  true  "Category details"
// @Success      200   {object}  domain.Category
// @Failure      404   {object}  errorResponse
// @Router       /v1/categories/{id} [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cat := req.toDomain()
	cat.ID = c.Param("id")
	if err := h.categories.Update(c.Request().Context(), cat); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /v1/categories/:id.
//
// @Summary      Delete a category
// @Tags         categories
// @Security     BearerAuth
// @Param        id   path  string  true  "Category ID"
// @Success      204  "no content"
// @Failure      404  {object}  errorResponse
// @Router       /v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	if err := h.categories.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
