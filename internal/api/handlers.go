package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/Akshitakasturia08/ai-voice-detection-api/internal/api/middleware"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/detection"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

// StatusResponse is returned by the root endpoint
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DetectionResponse is the success body of a classification call
type DetectionResponse struct {
	Status          string  `json:"status"`
	Language        string  `json:"language"`
	Classification  string  `json:"classification"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Explanation     string  `json:"explanation"`
	SavedFile       string  `json:"savedFile"`
}

// root answers liveness probes without touching any dependency.
func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "ok",
		Message: "AI voice detection API is running",
	})
}

// detect runs the classification pipeline on the request body. The
// credential is read here and handed to the detector untouched; every
// failure is returned to the error handler for rendering.
func (s *Server) detect(c echo.Context) error {
	req := c.Request()
	credential := req.Header.Get(mw.HeaderAPIKey)

	outcome, err := s.detector.Detect(req.Context(), credential, req.Body)
	if err != nil {
		return err
	}

	s.log.WithContext(req.Context()).Debug("classification served",
		logger.String("file", outcome.Audio.FileName),
		logger.String("classification", string(outcome.Result.Classification)),
		logger.Duration("took", outcome.Took))

	return c.JSON(http.StatusOK, newDetectionResponse(outcome))
}

func newDetectionResponse(o *detection.Outcome) DetectionResponse {
	return DetectionResponse{
		Status:          "success",
		Language:        o.Language,
		Classification:  string(o.Result.Classification),
		ConfidenceScore: o.Result.Confidence,
		Explanation:     o.Result.Explanation,
		SavedFile:       o.Audio.FileName,
	}
}
