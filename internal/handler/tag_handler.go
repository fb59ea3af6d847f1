package handler

import (
	"net/http"
	"strconv"

	"recipebook/backend/internal/models"
	"recipebook/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// TagResponse describes one tag.
type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name" example:"VEGETARIAN"`
	Slug  string `json:"slug" example:"vegetarian"`
	Scope string `json:"scope" example:"system"`
}

// RenameTagInput defines the rename request body.
type RenameTagInput struct {
	Name string `json:"name" binding:"required" example:"Weeknight"`
}

// ConvertTagInput defines the convert-to-system request body.
type ConvertTagInput struct {
	Name string `json:"name" binding:"required" example:"Vegetarian"`
}

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func tagResponse(t models.Tag) TagResponse {
	return TagResponse{
		ID:    t.ID,
		Name:  t.Name,
		Slug:  t.Slug,
		Scope: string(t.Scope),
	}
}

// ListTags godoc
// @Summary      List available tags
// @Description  Lists every system tag plus the user's own personal tags.
// @Tags         tags
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  TagResponse
// @Router       /tags [get]
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.ListForUser(mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, tagResponse(tag))
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteTag godoc
// @Summary      Delete a tag
// @Description  Admin only. System tags and tags still attached to recipes are not deletable.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Tag ID"
// @Success      200  {object}  map[string]string "{"message": "Tag deleted"}"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	tagID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid tag ID"})
		return
	}

	if err := h.tags.DeleteTag(uint(tagID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted"})
}

// RenameTag godoc
// @Summary      Rename a tag
// @Description  Admin only. Tags still attached to recipes keep their name.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Tag ID"
// @Param        input body      RenameTagInput  true  "New name"
// @Success      200   {object}  TagResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /admin/tags/{id} [put]
func (h *TagHandler) RenameTag(c *gin.Context) {
	tagID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid tag ID"})
		return
	}

	var input RenameTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	tag, err := h.tags.RenameTag(uint(tagID), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagResponse(*tag))
}

// ConvertToSystem godoc
// @Summary      Promote a personal tag to a system tag
// @Description  Admin only. Merges every user's personal tag with the given name into one system tag, re-pointing recipe associations.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body      ConvertTagInput  true  "Tag name"
// @Success      200   {object}  map[string]int "{"merged": 3}"
// @Failure      400   {object}  ErrorResponse
// @Router       /admin/tags/convert [post]
func (h *TagHandler) ConvertToSystem(c *gin.Context) {
	var input ConvertTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	merged, err := h.tags.ConvertPersonalToSystem(input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": merged})
}

// CleanupTags godoc
// @Summary      Delete orphaned personal tags
// @Description  Admin only. Removes personal tags with no recipes attached. System tags are never removed.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"removed": 5}"
// @Router       /admin/tags/cleanup [post]
func (h *TagHandler) CleanupTags(c *gin.Context) {
	removed, err := h.tags.CleanupOrphanedTags(nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
