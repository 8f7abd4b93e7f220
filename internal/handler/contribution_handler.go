package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/logic"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"gorm.io/gorm"
)

// ContributionHandler 会费处理器
type ContributionHandler struct {
	contributionLogic *logic.ContributionLogic
	policy            config.FieldPolicy
}

// NewContributionHandler creates the contribution handler.
func NewContributionHandler(db *gorm.DB, key []byte, policy config.FieldPolicy) *ContributionHandler {
	return &ContributionHandler{
		contributionLogic: logic.NewContributionLogic(db, key),
		policy:            policy,
	}
}

// Create records a new contribution for the authenticated member.
func (h *ContributionHandler) Create(c *gin.Context) {
	var body logic.ContributionInput
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}

	record, err := h.contributionLogic.Create(CurrentUserID(c), &body, h.policy)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "contribution recorded", ToContributionResponse(record))
}

// List returns all contributions for admins, own-only for members.
func (h *ContributionHandler) List(c *gin.Context) {
	var (
		records []model.Contribution
		err     error
	)
	if IsAdmin(c) {
		records, err = h.contributionLogic.List()
	} else {
		records, err = h.contributionLogic.ListByUser(CurrentUserID(c))
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", ToContributionResponseList(records))
}

// Get returns one contribution. Members only see their own.
func (h *ContributionHandler) Get(c *gin.Context) {
	record, err := h.contributionLogic.Get(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	if !IsAdmin(c) && record.UserID != CurrentUserID(c) {
		ErrorResponse(c, http.StatusNotFound, "contribution not found")
		return
	}
	SuccessResponse(c, http.StatusOK, "", ToContributionResponse(record))
}

// Update applies a full admin edit, including status and settlement fields.
func (h *ContributionHandler) Update(c *gin.Context) {
	var body logic.ContributionUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}

	record, err := h.contributionLogic.Update(c.Param("id"), &body, h.policy)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contribution updated", ToContributionResponse(record))
}

// TogglePayment applies the one-click status cycle.
func (h *ContributionHandler) TogglePayment(c *gin.Context) {
	record, err := h.contributionLogic.TogglePayment(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "payment status updated", ToContributionResponse(record))
}

type idListRequest struct {
	IDs []string `json:"ids"`
}

// BulkMarkPaid forces every listed contribution to the paid state of its own
// payment method.
func (h *ContributionHandler) BulkMarkPaid(c *gin.Context) {
	var body idListRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}

	records, err := h.contributionLogic.BulkMarkPaid(body.IDs)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contributions marked paid", ToContributionResponseList(records))
}

// Delete removes one contribution.
func (h *ContributionHandler) Delete(c *gin.Context) {
	if err := h.contributionLogic.Delete(c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contribution deleted", nil)
}

// BulkDelete removes several contributions at once.
func (h *ContributionHandler) BulkDelete(c *gin.Context) {
	var body idListRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}

	deleted, err := h.contributionLogic.BulkDelete(body.IDs)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contributions deleted", gin.H{"deleted": deleted})
}
