package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/coordinator"
	"github.com/reelforge/reelforge/pkg/models"
)

// submitGenerationHandler handles POST /api/v1/generations.
// Accepts a multipart form and returns immediately with the generation
// ID; the pipeline runs in the background.
func (s *Server) submitGenerationHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form: " + err.Error()})
		return
	}

	sub := coordinator.Submission{
		UserID:             formValue(form, "user_id"),
		Prompt:             formValue(form, "prompt"),
		Title:              formValue(form, "title"),
		BrandName:          formValue(form, "brand_name"),
		ClientGenerationID: formValue(form, "client_generation_id"),
	}
	if v := formValue(form, "target_duration_seconds"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_duration_seconds must be an integer"})
			return
		}
		sub.TargetDurationSeconds = d
	}
	if v := formValue(form, "max_story_iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_story_iterations must be an integer"})
			return
		}
		sub.MaxStoryIterations = n
	}
	for _, field := range []string{"generate_scenes", "generate_videos"} {
		v := formValue(form, field)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": field + " must be a boolean"})
			return
		}
		if field == "generate_scenes" {
			sub.GenerateScenes = &b
		} else {
			sub.GenerateVideos = &b
		}
	}

	images, err := readImages(form.File["images"], s.cfg.Storage.MaxImageBytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub.Images = images

	id, err := s.submitter.Submit(c.Request.Context(), sub)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"generation_id": id.String(),
		"status":        string(models.GenerationStatusProcessing),
		"message":       "Generation accepted for processing",
	})
}

// getGenerationHandler handles GET /api/v1/generations/:id, the polling
// fallback for clients without a live stream.
func (s *Server) getGenerationHandler(c *gin.Context) {
	gen, err := s.reader.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gen)
}

// getConversationHandler handles GET /api/v1/generations/:id/conversation.
// The transcript becomes available once the generation is terminal.
func (s *Server) getConversationHandler(c *gin.Context) {
	interactions, err := s.reader.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generation_id": c.Param("id"),
		"interactions":  interactions,
	})
}

// cancelGenerationHandler handles POST /api/v1/generations/:id/cancel.
func (s *Server) cancelGenerationHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "generation id is not a UUID"})
		return
	}
	if !s.submitter.Cancel(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no running generation with that id"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"generation_id": id.String(),
		"message":       "Cancellation requested",
	})
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// readImages loads the uploaded reference images, preserving submission
// order as the 1-based index.
func readImages(files []*multipart.FileHeader, maxBytes int64) ([]models.ReferenceImage, error) {
	var images []models.ReferenceImage
	for i, fh := range files {
		if fh.Size > maxBytes {
			return nil, fmt.Errorf("image %q exceeds %d bytes", fh.Filename, maxBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening image %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading image %q: %w", fh.Filename, err)
		}
		if int64(len(data)) > maxBytes {
			return nil, fmt.Errorf("image %q exceeds %d bytes", fh.Filename, maxBytes)
		}
		images = append(images, models.ReferenceImage{
			Index:    i + 1,
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return images, nil
}
