package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/middleware"
	"github.com/gebeya/marketplace-api/internal/service"
)

type FavoriteHandler struct {
	favoriteService *service.FavoriteService
}

func NewFavoriteHandler(favoriteService *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	var req dto.AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fav, err := h.favoriteService.Add(c.Request.Context(), middleware.GetUserID(c), req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, service.ErrAlreadyFavorited):
			c.JSON(http.StatusConflict, gin.H{"error": "product already favorited"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, fav)
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.favoriteService.Remove(c.Request.Context(), middleware.GetUserID(c), productID); err != nil {
		if errors.Is(err, service.ErrNotFavorited) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not in favorites"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FavoriteHandler) ListMine(c *gin.Context) {
	favorites, err := h.favoriteService.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, favorites)
}
