package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zosarillana/prs-be/internal/application/service"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

type itemStatusRequest struct {
	Status entity.ItemStatus `json:"status" binding:"required"`
	Remark string            `json:"remark"`
	AsRole string            `json:"as_role"`
}

// mayActAs reports whether u holds the role it claims to sign as
func mayActAs(u *entity.User, asRole string) bool {
	if u.Roles.Has(entity.RoleAdmin) {
		return true
	}
	switch asRole {
	case service.ActingTechnicalReviewer:
		return u.Roles.Has(entity.RoleTechnicalReviewer)
	case service.ActingHOD:
		return u.Roles.Has(entity.RoleHOD)
	case service.ActingBoth:
		return u.Roles.Has(entity.RoleTechnicalReviewer) && u.Roles.Has(entity.RoleHOD)
	}
	return true
}

// UpdateItemStatus handles POST /api/purchase-reports/:id/items/:index/status
func (s *Server) UpdateItemStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid index")
		return
	}

	var req itemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	u := currentUser(c)
	if !mayActAs(u, req.AsRole) {
		c.AbortWithStatusJSON(http.StatusForbidden, Response{Error: "cannot sign as " + req.AsRole})
		return
	}

	r, err := s.services.Approval.ApproveItem(c.Request.Context(), id, index, req.Status, req.Remark, req.AsRole, u.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

type assignPoRequest struct {
	PoNo string `json:"po_no" binding:"required"`
}

// AssignPo handles POST /api/purchase-reports/:id/po
func (s *Server) AssignPo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req assignPoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "po_no is required")
		return
	}

	r, err := s.services.PO.AssignPoNo(c.Request.Context(), id, req.PoNo, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// CancelPo handles POST /api/purchase-reports/:id/po/cancel
func (s *Server) CancelPo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	r, err := s.services.PO.CancelPoNo(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// ReturnPo handles POST /api/purchase-reports/:id/po/return
func (s *Server) ReturnPo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	r, err := s.services.PO.ReturnPoNo(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

type approvePoRequest struct {
	PoStatus       entity.POStatus `json:"po_status"`
	PoApprovedDate string          `json:"po_approved_date"`
}

// ApprovePo handles POST /api/purchase-reports/:id/po/approve
func (s *Server) ApprovePo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req approvePoRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	approved, err := parseOptionalDate(req.PoApprovedDate)
	if err != nil {
		badRequest(c, "invalid po_approved_date")
		return
	}

	var date time.Time
	if approved != nil {
		date = *approved
	}

	r, err := s.services.PO.ApprovePoDate(c.Request.Context(), id, req.PoStatus, date, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}
