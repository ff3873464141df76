package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zosarillana/prs-be/internal/application/service"
)

type progressRequest struct {
	Title     string `json:"title"`
	Remarks   string `json:"remarks"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *progressRequest) input() (service.ProgressInput, bool) {
	in := service.ProgressInput{Title: r.Title, Remarks: r.Remarks}
	if r.StartDate != "" {
		t, err := parseDate(r.StartDate)
		if err != nil {
			return in, false
		}
		in.StartDate = t
	}
	end, err := parseOptionalDate(r.EndDate)
	if err != nil {
		return in, false
	}
	in.EndDate = end
	return in, true
}

func bindProgress(c *gin.Context) (service.ProgressInput, bool) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return service.ProgressInput{}, false
	}
	in, ok := req.input()
	if !ok {
		badRequest(c, "invalid date")
	}
	return in, ok
}

// ListProgress handles GET /api/purchase-reports/:id/progress
func (s *Server) ListProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := s.services.Progress.List(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// AddProgress handles POST /api/purchase-reports/:id/progress
func (s *Server) AddProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := bindProgress(c)
	if !ok {
		return
	}

	p, err := s.services.Progress.Add(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

// UpdateProgress handles PUT /api/purchase-reports/:id/progress/:progressId
func (s *Server) UpdateProgress(c *gin.Context) {
	progressID, ok := pathID(c, "progressId")
	if !ok {
		return
	}
	in, ok := bindProgress(c)
	if !ok {
		return
	}

	p, err := s.services.Progress.Update(c.Request.Context(), currentUser(c), progressID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// DeleteProgress handles DELETE /api/purchase-reports/:id/progress/:progressId
func (s *Server) DeleteProgress(c *gin.Context) {
	progressID, ok := pathID(c, "progressId")
	if !ok {
		return
	}

	if err := s.services.Progress.Delete(c.Request.Context(), currentUser(c), progressID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": progressID})
}
