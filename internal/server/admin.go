package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"promogen-go/internal/credential"
	"promogen-go/internal/usage"
)

type adminHandler struct {
	usage *usage.Tracker
	store credential.AdminStore
}

// managementAuth guards the admin surface with a bearer key compared in
// constant time. An empty configured key disables the surface entirely.
func managementAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": gin.H{"message": "admin surface disabled", "type": "not_found"},
			})
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid management key", "type": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

func (a *adminHandler) usageSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, a.usage.Snapshot())
}

func (a *adminHandler) usageReset(c *gin.Context) {
	a.usage.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

type credentialView struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Provider       string `json:"provider"`
	IsDefault      bool   `json:"is_default"`
	Status         string `json:"status"`
	IsActive       bool   `json:"is_active"`
}

// listCredentials exposes credential metadata for operators. Secret
// references never leave the store.
func (a *adminHandler) listCredentials(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": gin.H{"message": "credential store not configured", "type": "not_implemented"},
		})
		return
	}
	creds, err := a.store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"message": "list credentials failed", "type": "internal_error"},
		})
		return
	}
	views := make([]credentialView, 0, len(creds))
	for _, cr := range creds {
		views = append(views, credentialView{
			ID:             cr.ID,
			OrganizationID: cr.OrganizationID,
			Provider:       cr.Provider,
			IsDefault:      cr.IsDefault,
			Status:         string(cr.Status),
			IsActive:       cr.IsActive,
		})
	}
	c.JSON(http.StatusOK, gin.H{"credentials": views})
}
