package location

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo *Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// CreateLocation godoc
// @Summary      Create location
// @Description  Adds a new shop branch. Admin only.
// @Tags         locations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateLocationRequest  true  "Location data"
// @Success      201      {object}  Location
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/locations [post]
func (h *Handler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
		return
	}

	c.JSON(http.StatusCreated, loc)
}

// ListLocations godoc
// @Summary      List locations
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Location
// @Failure      500  {object}  gin.H
// @Router       /locations [get]
func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
		return
	}

	c.JSON(http.StatusOK, locations)
}

// GetLocation godoc
// @Summary      Get location
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Param        locationID  path      int  true  "Location ID"
// @Success      200         {object}  Location
// @Failure      400         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /locations/{locationID} [get]
func (h *Handler) GetLocation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("locationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return
	}

	loc, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	c.JSON(http.StatusOK, loc)
}

// UpdateLocation godoc
// @Summary      Update location
// @Description  Partially updates a shop branch. Admin only.
// @Tags         locations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        locationID  path      int                    true  "Location ID"
// @Param        request     body      UpdateLocationRequest  true  "Fields to update"
// @Success      200         {object}  Location
// @Failure      400         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /admin/locations/{locationID} [patch]
func (h *Handler) UpdateLocation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("locationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc, err := h.repo.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}

	c.JSON(http.StatusOK, loc)
}
