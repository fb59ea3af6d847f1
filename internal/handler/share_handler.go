package handler

import (
	"net/http"
	"strconv"
	"time"

	"recipebook/backend/internal/models"
	"recipebook/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ShareTargetInput is one intended recipient: a user id or an email.
type ShareTargetInput struct {
	UserID *uint  `json:"user_id,omitempty" example:"2"`
	Email  string `json:"email,omitempty" example:"friend@example.com"`
}

// ShareRecipeInput defines the share request body.
type ShareRecipeInput struct {
	Targets []ShareTargetInput `json:"targets" binding:"required"`
}

// ShareResponse describes one entry in the share ledger.
type ShareResponse struct {
	ID         uint               `json:"id"`
	RecipeID   uint               `json:"recipe_id"`
	RecipeName string             `json:"recipe_name"`
	SharedBy   PublicUserResponse `json:"shared_by"`
	CreatedAt  time.Time          `json:"created_at"`
}

// PendingShareResponse describes one not-yet-accepted share.
type PendingShareResponse struct {
	ID         uint               `json:"id"`
	RecipeID   uint               `json:"recipe_id"`
	RecipeName string             `json:"recipe_name"`
	SharedBy   PublicUserResponse `json:"shared_by"`
	Token      string             `json:"token"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ShareOutcomeResponse summarizes what a share call produced.
type ShareOutcomeResponse struct {
	Shared  []ShareResponse        `json:"shared"`
	Pending []PendingShareResponse `json:"pending"`
}

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

func shareResponse(s models.RecipeShare) ShareResponse {
	return ShareResponse{
		ID:         s.ID,
		RecipeID:   s.RecipeID,
		RecipeName: s.Recipe.Name,
		SharedBy:   publicUser(s.SharedBy),
		CreatedAt:  s.CreatedAt,
	}
}

func pendingShareResponse(p models.PendingRecipeShare) PendingShareResponse {
	return PendingShareResponse{
		ID:         p.ID,
		RecipeID:   p.RecipeID,
		RecipeName: p.Recipe.Name,
		SharedBy:   publicUser(p.SharedBy),
		Token:      p.Token,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
	}
}

func shareOutcomeResponse(outcome *service.ShareOutcome) ShareOutcomeResponse {
	response := ShareOutcomeResponse{
		Shared:  make([]ShareResponse, 0, len(outcome.Shared)),
		Pending: make([]PendingShareResponse, 0, len(outcome.Pending)),
	}
	for _, share := range outcome.Shared {
		response.Shared = append(response.Shared, shareResponse(share))
	}
	for _, pending := range outcome.Pending {
		response.Pending = append(response.Pending, pendingShareResponse(pending))
	}
	return response
}

// ShareRecipe godoc
// @Summary      Share a recipe
// @Description  Shares a public recipe with one or more targets. Friends get access immediately; other registered users get a friend request with the share attached; unknown emails get an invite with a one-off link.
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Recipe ID"
// @Param        input body      ShareRecipeInput  true  "Share targets"
// @Success      201   {object}  ShareOutcomeResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /recipes/{id}/share [post]
func (h *ShareHandler) ShareRecipe(c *gin.Context) {
	ownerID := mustUserID(c)
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid recipe ID"})
		return
	}

	var input ShareRecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	targets := make([]service.ShareTarget, 0, len(input.Targets))
	for _, target := range input.Targets {
		targets = append(targets, service.ShareTarget{UserID: target.UserID, Email: target.Email})
	}

	outcome, err := h.shares.ShareRecipe(ownerID, uint(recipeID), targets)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shareOutcomeResponse(outcome))
}

// Unshare godoc
// @Summary      Revoke a share
// @Description  Removes one user's access to the recipe. Owner only.
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int  true  "Recipe ID"
// @Param        userId  path      int  true  "User the recipe was shared with"
// @Success      200     {object}  map[string]string "{"message": "Share revoked"}"
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /recipes/{id}/share/{userId} [delete]
func (h *ShareHandler) Unshare(c *gin.Context) {
	ownerID := mustUserID(c)
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid recipe ID"})
		return
	}
	withUserID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.shares.Unshare(ownerID, uint(recipeID), uint(withUserID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Share revoked"})
}

// ListSharedWithMe godoc
// @Summary      List recipes shared with me
// @Description  Lists the viewer's incoming share ledger entries, newest first. Entries from former friends are included; the recipes they point at are only viewable while the friendship exists.
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ShareResponse
// @Router       /shares [get]
func (h *ShareHandler) ListSharedWithMe(c *gin.Context) {
	shares, err := h.shares.ListSharedWithMe(mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]ShareResponse, 0, len(shares))
	for _, share := range shares {
		responses = append(responses, shareResponse(share))
	}
	c.JSON(http.StatusOK, responses)
}

// ListPending godoc
// @Summary      List pending shares
// @Description  Lists open shares awaiting the user's decision, keyed by their account or their email.
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  PendingShareResponse
// @Router       /shares/pending [get]
func (h *ShareHandler) ListPending(c *gin.Context) {
	pendings, err := h.shares.ListPendingForUser(mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]PendingShareResponse, 0, len(pendings))
	for _, pending := range pendings {
		responses = append(responses, pendingShareResponse(pending))
	}
	c.JSON(http.StatusOK, responses)
}

// GetPending godoc
// @Summary      Get a pending share by token
// @Description  Loads the pending share behind an invite link. Tokens addressed to someone else read as not found.
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        token path      string  true  "Share token"
// @Success      200   {object}  PendingShareResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /shares/pending/{token} [get]
func (h *ShareHandler) GetPending(c *gin.Context) {
	pending, err := h.shares.GetPendingByToken(mustUserID(c), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pendingShareResponse(*pending))
}

// AcceptPending godoc
// @Summary      Accept a pending share
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        token path      string  true  "Share token"
// @Success      200   {object}  ShareResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /shares/pending/{token}/accept [post]
func (h *ShareHandler) AcceptPending(c *gin.Context) {
	share, err := h.shares.AcceptPending(mustUserID(c), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shareResponse(*share))
}

// RejectPending godoc
// @Summary      Reject a pending share
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        token path      string  true  "Share token"
// @Success      200   {object}  map[string]string "{"message": "Share rejected"}"
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /shares/pending/{token}/reject [post]
func (h *ShareHandler) RejectPending(c *gin.Context) {
	if err := h.shares.RejectPending(mustUserID(c), c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Share rejected"})
}
