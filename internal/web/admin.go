package web

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/diasporabridge/bridge/internal/core"
)

const maxUploadSize = 5 << 20 // 5MB

// Admin handlers. Every route in this file sits behind requireAdmin.

func (s *Server) handleAdminListProfiles(c *gin.Context) {
	profiles, err := s.platform.ListProfiles(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"profiles": profiles,
		"count":    len(profiles),
	})
}

func (s *Server) handleAdminCreateProfile(c *gin.Context) {
	var input core.ProfileInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	profile, err := s.platform.CreateProfile(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"profile": profile,
	})
}

func (s *Server) handleAdminGetProfile(c *gin.Context) {
	profile, err := s.platform.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
	})
}

func (s *Server) handleAdminUpdateProfile(c *gin.Context) {
	var input core.ProfileInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	profile, err := s.platform.UpdateProfile(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
	})
}

func (s *Server) handleAdminPatchProfile(c *gin.Context) {
	var patch core.ProfilePatch
	if err := c.BindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	profile, err := s.platform.PatchProfile(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
	})
}

func (s *Server) handleAdminListDeliveries(c *gin.Context) {
	deliveries, err := s.platform.ListDeliveries(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"deliveries": deliveries,
		"count":      len(deliveries),
	})
}

func (s *Server) handleAdminCreateDelivery(c *gin.Context) {
	var input core.DeliveryInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	delivery, err := s.platform.CreateDelivery(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"delivery": delivery,
	})
}

func (s *Server) handleAdminStats(c *gin.Context) {
	stats, err := s.platform.GetStats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleAdminUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no file provided"})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file too large, maximum 5MB"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable file"})
		return
	}

	url, err := s.platform.UploadPhoto(c.Request.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
	})
}
