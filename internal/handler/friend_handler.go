package handler

import (
	"net/http"
	"strconv"
	"time"

	"recipebook/backend/internal/models"
	"recipebook/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// FriendRequestResponse describes one friend request.
type FriendRequestResponse struct {
	ID        uint               `json:"id"`
	Sender    PublicUserResponse `json:"sender"`
	Recipient PublicUserResponse `json:"recipient"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type FriendHandler struct {
	friends *service.FriendService
}

func NewFriendHandler(friends *service.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

func friendRequestResponse(r models.FriendRequest) FriendRequestResponse {
	return FriendRequestResponse{
		ID:        r.ID,
		Sender:    publicUser(r.Sender),
		Recipient: publicUser(r.Recipient),
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      201  {object}  map[string]uint "{"request_id": 1}"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users/{id}/request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	senderID := mustUserID(c)
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid target user ID"})
		return
	}

	request, err := h.friends.SendRequest(senderID, uint(targetID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request_id": request.ID})
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request. Creates the friendship and resolves every pending recipe share attached to the request in one transaction.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request accepted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/requests/{id}/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	userID := mustUserID(c)
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request ID"})
		return
	}

	if err := h.friends.AcceptRequest(userID, uint(requestID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

// RejectRequest godoc
// @Summary      Reject friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request rejected"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/requests/{id}/reject [post]
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	userID := mustUserID(c)
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request ID"})
		return
	}

	if err := h.friends.RejectRequest(userID, uint(requestID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
}

// CancelRequest godoc
// @Summary      Cancel friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request cancelled"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/requests/{id}/cancel [post]
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	userID := mustUserID(c)
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request ID"})
		return
	}

	if err := h.friends.CancelRequest(userID, uint(requestID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request cancelled"})
}

// ListFriends godoc
// @Summary      List friends
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   PublicUserResponse
// @Router       /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := mustUserID(c)

	friends, err := h.friends.ListFriends(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]PublicUserResponse, 0, len(friends))
	for _, friend := range friends {
		responses = append(responses, publicUser(friend))
	}
	c.JSON(http.StatusOK, responses)
}

// ListRequests godoc
// @Summary      List pending friend requests
// @Description  Lists the user's pending friend requests, filtered by direction (incoming or outgoing).
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        direction query     string  false  "incoming (default) or outgoing"
// @Success      200       {array}   FriendRequestResponse
// @Router       /friends/requests [get]
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := mustUserID(c)

	var (
		requests []models.FriendRequest
		err      error
	)
	switch c.DefaultQuery("direction", "incoming") {
	case "outgoing":
		requests, err = h.friends.ListOutgoingRequests(userID)
	default:
		requests, err = h.friends.ListIncomingRequests(userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]FriendRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, friendRequestResponse(request))
	}
	c.JSON(http.StatusOK, responses)
}

// Unfriend godoc
// @Summary      Remove a friend
// @Description  Deletes the friendship. Existing recipe shares are kept but go dormant until the users are friends again.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Friend User ID"
// @Success      200  {object}  map[string]string "{"message": "Friend removed"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/{id} [delete]
func (h *FriendHandler) Unfriend(c *gin.Context) {
	userID := mustUserID(c)
	otherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.friends.Unfriend(userID, uint(otherID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}
