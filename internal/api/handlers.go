// internal/api/handlers.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/notify"
)

// handleCheck triggers a full reminder sweep on demand.
func (s *Server) handleCheck(c *gin.Context) {
	result, err := s.coordinator.RunSweep(c.Request.Context(), "manual")
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   result.Sent,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	})
}

// handleDigest triggers a digest run on demand.
func (s *Server) handleDigest(c *gin.Context) {
	result, err := s.coordinator.RunDigest(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": result.Sent})
}

type manualSendRequest struct {
	UserEmail string `json:"userEmail"`
}

// handleManualSend sends a reminder for one application immediately.
func (s *Server) handleManualSend(c *gin.Context) {
	var req manualSendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "User email is required"})
		return
	}

	result, err := s.coordinator.SendManualReminder(c.Request.Context(), c.Param("applicationId"), req.UserEmail)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetSettings returns the user's notification settings, creating the
// user with defaults on first access.
func (s *Server) handleGetSettings(c *gin.Context) {
	user, err := s.settings.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"settings": user.Settings,
		"name":     user.Name,
	})
}

// settingsSchema rejects malformed update payloads before they reach the
// settings service.
const settingsSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"notificationSettings": {
			"type": "object",
			"properties": {
				"emailEnabled": {"type": "boolean"},
				"reminderDaysBefore": {"type": "integer", "minimum": 0, "maximum": 30},
				"dailyDigest": {"type": "boolean"},
				"digestTime": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

var settingsSchemaLoader = gojsonschema.NewStringLoader(settingsSchema)

type updateSettingsRequest struct {
	Name                 *string `json:"name"`
	NotificationSettings *struct {
		EmailEnabled       *bool   `json:"emailEnabled"`
		ReminderDaysBefore *int    `json:"reminderDaysBefore"`
		DailyDigest        *bool   `json:"dailyDigest"`
		DigestTime         *string `json:"digestTime"`
	} `json:"notificationSettings"`
}

// handleUpdateSettings merges a partial settings update for the user.
func (s *Server) handleUpdateSettings(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable request body"})
		return
	}

	validation, err := gojsonschema.Validate(settingsSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}
	if !validation.Valid() {
		var problems []string
		for _, desc := range validation.Errors() {
			problems = append(problems, desc.String())
		}
		s.abortWithError(c, apperrors.NewSettingsValidationFailedError(strings.Join(problems, "; ")))
		return
	}

	var req updateSettingsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}

	patch := notify.SettingsPatch{Name: req.Name}
	if req.NotificationSettings != nil {
		patch.EmailEnabled = req.NotificationSettings.EmailEnabled
		patch.ReminderDaysBefore = req.NotificationSettings.ReminderDaysBefore
		patch.DailyDigest = req.NotificationSettings.DailyDigest
		patch.DigestTime = req.NotificationSettings.DigestTime
	}

	user, err := s.settings.Update(c.Request.Context(), c.Param("email"), patch)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Notification settings updated successfully",
		"settings": user.Settings,
	})
}

// handleVerify reports whether the email provider is ready to send.
func (s *Server) handleVerify(c *gin.Context) {
	if err := s.coordinator.VerifyEmail(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"verified": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true, "message": "Email service is ready"})
}
