package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// callerID reads the authenticated user id stored by the auth middleware.
func callerID(c *gin.Context) uuid.UUID {
	v, _ := c.Get("user_id")
	id, _ := v.(uuid.UUID)
	return id
}

// callerRole reads the authenticated role stored by the auth middleware.
func callerRole(c *gin.Context) string {
	v, _ := c.Get("role")
	role, _ := v.(string)
	return role
}
