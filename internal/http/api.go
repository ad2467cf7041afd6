package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"users-api/internal/apperror"
	"users-api/internal/domain"
	"users-api/internal/service"
	"users-api/internal/validation"
)

const welcomeMessage = "Welcome to the users API"

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	health HealthCheck
}

func NewHandler(users service.UserService, health HealthCheck) *Handler {
	return &Handler{
		users:  users,
		health: health,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
	})
	router.GET("/health", h.healthCheck)

	api := router.Group("/api")
	{
		api.GET("/users", h.listUsers)
		api.GET("/users/:id", h.getUser)
		api.POST("/users", h.createUser)
		api.PUT("/users/:id", h.updateUser)
		api.DELETE("/users/:id", h.deleteUser)
	}
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Age       *int   `json:"age"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Age:       user.Age,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) createUser(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	in, err := validation.ParseCreate(body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	body, err := readObject(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	in, err := validation.ParseUpdate(body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	msg, err := h.users.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readObject decodes the request body as a JSON object. An empty body reads as {}.
func readObject(c *gin.Context) (map[string]any, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, bodyError("request body could not be read")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		return nil, bodyError("request body must be a JSON object")
	}
	return body, nil
}

func bodyError(message string) error {
	return apperror.Validation("validation failed", apperror.FieldError{Field: "body", Message: message})
}
