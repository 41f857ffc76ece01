package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	offerings *OfferingRepository
	products  *ProductRepository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		offerings: NewOfferingRepository(db),
		products:  NewProductRepository(db),
	}
}

// CreateOffering godoc
// @Summary      Create service offering
// @Description  Adds a new service offering to the catalog. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateOfferingRequest  true  "Offering data"
// @Success      201      {object}  Offering
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/offerings [post]
func (h *Handler) CreateOffering(c *gin.Context) {
	var req CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offering, err := h.offerings.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create offering"})
		return
	}

	c.JSON(http.StatusCreated, offering)
}

// ListOfferings godoc
// @Summary      List service offerings
// @Description  Returns the service catalog. Pass all=true to include inactive entries.
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        all  query     bool  false  "Include inactive offerings"
// @Success      200  {array}   Offering
// @Failure      500  {object}  gin.H
// @Router       /offerings [get]
func (h *Handler) ListOfferings(c *gin.Context) {
	onlyActive := c.Query("all") != "true"

	offerings, err := h.offerings.List(c.Request.Context(), onlyActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch offerings"})
		return
	}

	c.JSON(http.StatusOK, offerings)
}

// GetOffering godoc
// @Summary      Get service offering
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        offeringID  path      int  true  "Offering ID"
// @Success      200         {object}  Offering
// @Failure      400         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /offerings/{offeringID} [get]
func (h *Handler) GetOffering(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("offeringID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering ID"})
		return
	}

	offering, err := h.offerings.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offering not found"})
		return
	}

	c.JSON(http.StatusOK, offering)
}

// UpdateOffering godoc
// @Summary      Update service offering
// @Description  Partially updates an offering. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        offeringID  path      int                    true  "Offering ID"
// @Param        request     body      UpdateOfferingRequest  true  "Fields to update"
// @Success      200         {object}  Offering
// @Failure      400         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /admin/offerings/{offeringID} [patch]
func (h *Handler) UpdateOffering(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("offeringID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering ID"})
		return
	}

	var req UpdateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offering, err := h.offerings.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrOfferingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Offering not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update offering"})
		return
	}

	c.JSON(http.StatusOK, offering)
}

// DeactivateOffering godoc
// @Summary      Deactivate service offering
// @Description  Marks an offering inactive so it can no longer be booked. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        offeringID  path      int  true  "Offering ID"
// @Success      200         {object}  gin.H
// @Failure      400         {object}  gin.H
// @Failure      404         {object}  gin.H
// @Router       /admin/offerings/{offeringID} [delete]
func (h *Handler) DeactivateOffering(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("offeringID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offering ID"})
		return
	}

	if err := h.offerings.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrOfferingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Offering not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate offering"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Offering deactivated"})
}

// CreateProduct godoc
// @Summary      Create product
// @Description  Adds a new product to the catalog. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateProductRequest  true  "Product data"
// @Success      201      {object}  Product
// @Failure      400      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /admin/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Product name already exists"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ListProducts godoc
// @Summary      List products
// @Description  Returns the product catalog. Pass all=true to include unavailable entries.
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        all  query     bool  false  "Include unavailable products"
// @Success      200  {array}   Product
// @Failure      500  {object}  gin.H
// @Router       /products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	onlyAvailable := c.Query("all") != "true"

	products, err := h.products.List(c.Request.Context(), onlyAvailable)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct godoc
// @Summary      Get product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        productID  path      int  true  "Product ID"
// @Success      200        {object}  Product
// @Failure      400        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /products/{productID} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct godoc
// @Summary      Update product
// @Description  Partially updates a product. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        productID  path      int                   true  "Product ID"
// @Param        request    body      UpdateProductRequest  true  "Fields to update"
// @Success      200        {object}  Product
// @Failure      400        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /admin/products/{productID} [patch]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, product)
}
