package handlers

import (
	"log"
	"net/http"
	"time"

	guideRepo "trailbound/database/repository/guide"
	hikerRepo "trailbound/database/repository/hiker"
	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues tokens for guides and hikers.
type AuthHandler struct {
	Guides guideRepo.GuideRepository
	Hikers hikerRepo.HikerRepository
}

func NewAuthHandler(guides guideRepo.GuideRepository, hikers hikerRepo.HikerRepository) *AuthHandler {
	return &AuthHandler{Guides: guides, Hikers: hikers}
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=guide hiker"`
}

// SignIn validates credentials and returns a bearer token.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid sign-in request", err.Error())
		return
	}

	var id, email, hash string
	switch req.Role {
	case "guide":
		guide, err := h.Guides.GetByEmail(c.Request.Context(), req.Email)
		if err != nil || guide == nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		id, email, hash = guide.ID, guide.Email, guide.PasswordHash
	case "hiker":
		hiker, err := h.Hikers.GetByEmail(c.Request.Context(), req.Email)
		if err != nil || hiker == nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		id, email, hash = hiker.ID, hiker.Email, hiker.PasswordHash
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	token, err := utils.GenerateToken(id, email, req.Role, 24*time.Hour)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to issue token", err.Error())
		return
	}

	// Registering the token hash supersedes any earlier session. The token is
	// valid by signature regardless, so a cache failure is not fatal.
	if err := utils.CacheAuthToken(c.Request.Context(), req.Role, id, token); err != nil {
		log.Printf("WARNING: failed to register session in auth cache: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
