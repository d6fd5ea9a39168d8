package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/example/board-check/internal/message"
	"github.com/example/board-check/internal/usecase"
)

// MaxUploadSize caps each uploaded file; the passenger video dominates.
const MaxUploadSize = 64 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.BoardingUseCase, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authorized := router.Group("/", authMiddleware)

	authorized.POST("/board", func(c *gin.Context) {
		idImage, ok := readFormFile(c, "id_image")
		if !ok {
			return
		}
		passImage, ok := readFormFile(c, "boarding_pass")
		if !ok {
			return
		}
		video, ok := readFormFile(c, "video")
		if !ok {
			return
		}

		style := message.StyleConsole
		if c.PostForm("style") == string(message.StyleWeb) {
			style = message.StyleWeb
		}

		result, err := uc.Board(c.Request.Context(), idImage, passImage, video, style)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": result.SessionID,
			"validated":  result.Validated,
			"message":    result.Message,
		})
	})

	authorized.GET("/result/:id", func(c *gin.Context) {
		sessionID := c.Param("id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		record, err := uc.GetResult(c.Request.Context(), sessionID)
		if err != nil {
			if isNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id":              record.SessionID,
			"first_name":              record.FirstName,
			"last_name":               record.LastName,
			"flight_no":               record.FlightNo,
			"seat":                    record.Seat,
			"name_validated":          record.NameValidated,
			"dob_validated":           record.DOBValidated,
			"boarding_pass_validated": record.BoardingPassValidated,
			"person_validated":        record.PersonValidated,
			"luggage_validated":       record.LuggageValidated,
			"validated":               record.Validated,
			"message":                 record.Message,
			"created_at":              record.CreatedAt,
		})
	})

	authorized.GET("/metrics/summary", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

// isNotFound reports whether the lookup failed because no record exists, as
// opposed to the store being unreachable.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func readFormFile(c *gin.Context, field string) ([]byte, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " file is required"})
		return nil, false
	}
	if file.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": field + " exceeds upload limit"})
		return nil, false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open " + field})
		return nil, false
	}
	defer func(src multipart.File) {
		_ = src.Close()
	}(src)

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read " + field})
		return nil, false
	}
	if len(data) > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": field + " exceeds upload limit"})
		return nil, false
	}
	return data, true
}
