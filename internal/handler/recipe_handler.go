package handler

import (
	"net/http"
	"strconv"
	"time"

	"recipebook/backend/internal/models"
	"recipebook/backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecipeInput defines the writable recipe fields.
type RecipeInput struct {
	Name         string   `json:"name" binding:"required" example:"Shakshuka"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	Notes        string   `json:"notes"`
	PrepTime     int      `json:"prep_time" example:"10"`
	CookTime     int      `json:"cook_time" example:"25"`
	Servings     string   `json:"servings" example:"4"`
	Visibility   string   `json:"visibility" example:"private"`
	Tags         []string `json:"tags"`
}

// RecipeResponse describes one recipe.
type RecipeResponse struct {
	ID           uint               `json:"id"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug"`
	Description  string             `json:"description,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	PrepTime     int                `json:"prep_time"`
	CookTime     int                `json:"cook_time"`
	TotalTime    int                `json:"total_time"`
	Servings     string             `json:"servings,omitempty"`
	Visibility   string             `json:"visibility"`
	Owner        PublicUserResponse `json:"owner"`
	Tags         []string           `json:"tags"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`
}

type RecipeHandler struct {
	db      *gorm.DB
	recipes *service.RecipeService
}

func NewRecipeHandler(db *gorm.DB, recipes *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{db: db, recipes: recipes}
}

func recipeResponse(r models.Recipe) RecipeResponse {
	tags := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		tags = append(tags, tag.Name)
	}

	return RecipeResponse{
		ID:           r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		Instructions: r.Instructions,
		Notes:        r.Notes,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		TotalTime:    r.TotalTime(),
		Servings:     r.Servings,
		Visibility:   string(r.Visibility),
		Owner:        publicUser(r.Owner),
		Tags:         tags,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		PublishedAt:  r.PublishedAt,
	}
}

func (i RecipeInput) toServiceInput() service.RecipeInput {
	return service.RecipeInput{
		Name:         i.Name,
		Description:  i.Description,
		Instructions: i.Instructions,
		Notes:        i.Notes,
		PrepTime:     i.PrepTime,
		CookTime:     i.CookTime,
		Servings:     i.Servings,
		Visibility:   models.RecipeVisibility(i.Visibility),
		Tags:         i.Tags,
	}
}

// CreateRecipe godoc
// @Summary      Create a recipe
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RecipeInput true "Recipe"
// @Success      201  {object}  RecipeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /recipes [post]
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var input RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	recipe, err := h.recipes.CreateRecipe(mustUserID(c), input.toServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipeResponse(*recipe))
}

// GetRecipe godoc
// @Summary      Get a recipe
// @Description  Returns the recipe if the viewer may see it. Inaccessible recipes read as not found.
// @Tags         recipes
// @Produce      json
// @Param        id   path      int  true  "Recipe ID"
// @Success      200  {object}  RecipeResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recipes/{id} [get]
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid recipe ID"})
		return
	}

	recipe, err := h.recipes.GetRecipe(currentViewer(c, h.db), uint(recipeID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipeResponse(*recipe))
}

// ListRecipes godoc
// @Summary      List visible recipes
// @Description  Lists the viewer's own recipes plus recipes shared with them by current friends, newest update first.
// @Tags         recipes
// @Produce      json
// @Success      200  {array}  RecipeResponse
// @Router       /recipes [get]
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipes.ListRecipes(currentViewer(c, h.db))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, recipeResponse(recipe))
	}
	c.JSON(http.StatusOK, responses)
}

// UpdateRecipe godoc
// @Summary      Update a recipe
// @Description  Full update. Changing visibility is rejected while the recipe has active shares; going public moves personal tags into the notes field.
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Recipe ID"
// @Param        input body RecipeInput true "Recipe"
// @Success      200  {object}  RecipeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /recipes/{id} [put]
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid recipe ID"})
		return
	}

	var input RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	recipe, err := h.recipes.UpdateRecipe(mustUserID(c), uint(recipeID), input.toServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipeResponse(*recipe))
}

// ListMyRecipes godoc
// @Summary      List own recipes
// @Description  Lists the user's own recipes, tombstones excluded, optionally filtered by visibility.
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        visibility query    string  false  "incomplete, private or public"
// @Success      200        {array}  RecipeResponse
// @Router       /users/me/recipes [get]
func (h *RecipeHandler) ListMyRecipes(c *gin.Context) {
	userID := mustUserID(c)

	recipes, err := h.recipes.ListUserRecipes(userID, models.RecipeVisibility(c.Query("visibility")))
	if err != nil {
		respondError(c, err)
		return
	}

	var owner models.User
	if err := h.db.First(&owner, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}

	responses := make([]RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		recipe.Owner = owner
		responses = append(responses, recipeResponse(recipe))
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteRecipe godoc
// @Summary      Delete a recipe
// @Description  Owner only. A recipe with active shares is tombstoned so recipients keep access; otherwise it is removed outright.
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Recipe ID"
// @Success      200  {object}  map[string]bool "{"tombstoned": false}"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recipes/{id} [delete]
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid recipe ID"})
		return
	}

	tombstoned, err := h.recipes.DeleteRecipe(mustUserID(c), uint(recipeID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tombstoned": tombstoned})
}
