package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/database/users"
	"github.com/pr2ps/levelimporter/internal/services"
)

// UsersController looks up owners in the main database.
type UsersController struct {
	service *services.ImportService
}

func NewUsersController(service *services.ImportService) *UsersController {
	return &UsersController{service: service}
}

type SelectOwnerRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Find handles GET /api/users?term=&mode=
func (uc *UsersController) Find(c *gin.Context) {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		respondBadRequest(c, "term is required")
		return
	}
	mode, err := users.ParseSearchMode(c.Query("mode"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if mode == users.SearchByID {
		if _, err := strconv.ParseUint(term, 10, 32); err != nil {
			respondBadRequest(c, "user id needs to be a number")
			return
		}
	}

	found, err := uc.service.FindUsers(term, c.Query("mode"))
	if err != nil {
		respondServiceError(c, err, "find users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": found, "count": len(found)})
}

// GetOwner handles GET /api/owner
func (uc *UsersController) GetOwner(c *gin.Context) {
	owner, ok := uc.service.Owner()
	if !ok {
		respondNotFound(c, "owner")
		return
	}
	c.JSON(http.StatusOK, owner)
}

// SelectOwner handles POST /api/owner
func (uc *UsersController) SelectOwner(c *gin.Context) {
	var req SelectOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id is required")
		return
	}

	owner, err := uc.service.SelectOwner(req.UserID)
	if err != nil {
		respondServiceError(c, err, "select owner")
		return
	}

	respondSuccess(c, "Owner selected", owner)
}
