package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/zosarillana/prs-be/internal/application/workflow"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// reportRequest is the body of report create and update
type reportRequest struct {
	UserID          int64               `json:"user_id"`
	PrPurpose       string              `json:"pr_purpose"`
	Department      string              `json:"department"`
	DateSubmitted   string              `json:"date_submitted"`
	DateNeeded      string              `json:"date_needed"`
	Quantity        []decimal.Decimal   `json:"quantity"`
	Unit            []string            `json:"unit"`
	ItemDescription []string            `json:"item_description"`
	Tag             []int64             `json:"tag"`
	ItemStatus      []entity.ItemStatus `json:"item_status"`
	Remarks         []string            `json:"remarks"`
	IsDraft         bool                `json:"is_draft"`
}

func (r *reportRequest) input() (entity.ReportInput, error) {
	in := entity.ReportInput{
		UserID:          r.UserID,
		PrPurpose:       r.PrPurpose,
		Department:      r.Department,
		Quantity:        r.Quantity,
		Unit:            r.Unit,
		ItemDescription: r.ItemDescription,
		TagIDs:          r.Tag,
		ItemStatus:      r.ItemStatus,
		Remarks:         r.Remarks,
	}
	if r.DateSubmitted != "" {
		t, err := parseDate(r.DateSubmitted)
		if err != nil {
			return in, fmt.Errorf("invalid date_submitted")
		}
		in.DateSubmitted = t
	}
	if r.DateNeeded != "" {
		t, err := parseDate(r.DateNeeded)
		if err != nil {
			return in, fmt.Errorf("invalid date_needed")
		}
		in.DateNeeded = t
	}
	return in, nil
}

// reportFilter reads listing filters from the query string. List values are
// comma separated or repeated.
func reportFilter(c *gin.Context) (entity.ReportFilter, error) {
	f := entity.ReportFilter{
		SearchTerm: strings.TrimSpace(c.Query("searchTerm")),
		SortBy:     c.DefaultQuery("sortBy", "id"),
		SortOrder:  c.DefaultQuery("sortOrder", "asc"),
	}

	for _, s := range queryList(c, "statusTerm") {
		f.StatusTerm = append(f.StatusTerm, entity.POStatus(s))
	}
	for _, s := range queryList(c, "prStatusTerm") {
		f.PrStatusTerm = append(f.PrStatusTerm, entity.ReportStatus(s))
	}

	var err error
	if f.FromDate, err = parseOptionalDate(c.Query("fromDate")); err != nil {
		return f, fmt.Errorf("invalid fromDate")
	}
	if f.ToDate, err = parseOptionalDate(c.Query("toDate")); err != nil {
		return f, fmt.Errorf("invalid toDate")
	}
	if f.SubmittedFrom, err = parseOptionalDate(c.Query("submittedFrom")); err != nil {
		return f, fmt.Errorf("invalid submittedFrom")
	}
	if f.SubmittedTo, err = parseOptionalDate(c.Query("submittedTo")); err != nil {
		return f, fmt.Errorf("invalid submittedTo")
	}
	if f.NeededFrom, err = parseOptionalDate(c.Query("neededFrom")); err != nil {
		return f, fmt.Errorf("invalid neededFrom")
	}
	if f.NeededTo, err = parseOptionalDate(c.Query("neededTo")); err != nil {
		return f, fmt.Errorf("invalid neededTo")
	}

	f.OwnDepartment = queryBool(c, "ownDepartment")
	f.CompletedTR = queryBool(c, "completedTr")

	if v := c.Query("pageNumber"); v != "" {
		if f.PageNumber, err = strconv.Atoi(v); err != nil {
			return f, fmt.Errorf("invalid pageNumber")
		}
	}
	if v := c.Query("pageSize"); v != "" {
		if f.PageSize, err = strconv.Atoi(v); err != nil {
			return f, fmt.Errorf("invalid pageSize")
		}
	}
	return f, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// ListReports handles GET /api/purchase-reports
func (s *Server) ListReports(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := s.services.Reports.ListVisible(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, page)
}

// GetReport handles GET /api/purchase-reports/:id
func (s *Server) GetReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	u := currentUser(c)
	r, err := s.services.Reports.Get(c.Request.Context(), u, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, reportView{PurchaseReport: r, PoActions: poActions(u, r)})
}

// reportView is a report plus the PO moves open to the caller
type reportView struct {
	*entity.PurchaseReport
	PoActions []string `json:"po_actions"`
}

// poActions lists the PO triggers the caller may fire next, lower-cased.
// Only purchasing and admins act on POs.
func poActions(u *entity.User, r *entity.PurchaseReport) []string {
	actions := []string{}
	if u == nil || !u.Roles.HasAny(entity.RoleAdmin, entity.RolePurchasing) {
		return actions
	}
	for _, t := range workflow.PermittedPOTriggers(r.PoStatus) {
		actions = append(actions, strings.ToLower(string(t)))
	}
	return actions
}

// CreateReport handles POST /api/purchase-reports
func (s *Server) CreateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	r, err := s.services.Reports.CreateReport(c.Request.Context(), currentUser(c), in, req.IsDraft)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}

// UpdateReport handles PUT /api/purchase-reports/:id
func (s *Server) UpdateReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	r, err := s.services.Reports.UpdateReport(c.Request.Context(), currentUser(c), id, in, req.IsDraft)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// DeleteReport handles DELETE /api/purchase-reports/:id
func (s *Server) DeleteReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.services.Reports.DeleteReport(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id})
}

type deliveryRequest struct {
	DeliveryStatus entity.DeliveryStatus `json:"delivery_status" binding:"required"`
}

// UpdateDeliveryStatus handles PATCH /api/purchase-reports/:id/delivery-status
func (s *Server) UpdateDeliveryStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req deliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delivery_status is required")
		return
	}

	r, err := s.services.Reports.UpdateDeliveryStatus(c.Request.Context(), currentUser(c), id, req.DeliveryStatus)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// SummaryCounts handles GET /api/purchase-reports/summary
func (s *Server) SummaryCounts(c *gin.Context) {
	counts, err := s.services.Reports.SummaryCounts(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, counts)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportReports handles GET /api/purchase-reports/export and streams the workbook
func (s *Server) ExportReports(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	path, err := s.services.Export.ExportReports(ctx, currentUser(c), filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	content, err := s.storage.Read(ctx, path)
	if err != nil {
		s.fail(c, fmt.Errorf("read export: %w", err))
		return
	}

	name := path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, content)
}

// ReportAudit handles GET /api/purchase-reports/:id/audit. The trail is
// only served for reports the caller can see.
func (s *Server) ReportAudit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := s.services.Reports.Get(ctx, currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	logs, err := s.services.Audit.History(ctx, entity.AuditModelReport, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, logs)
}
