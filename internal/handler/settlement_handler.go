package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pqlammy/Gennerweb-sub000/internal/logic"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"gorm.io/gorm"
)

// SettlementHandler 结算处理器
type SettlementHandler struct {
	settlementLogic *logic.SettlementLogic
}

// NewSettlementHandler creates the settlement handler.
func NewSettlementHandler(db *gorm.DB, key []byte) *SettlementHandler {
	return &SettlementHandler{
		settlementLogic: logic.NewSettlementLogic(db, key),
	}
}

type createSettlementRequest struct {
	IDs           []string `json:"ids"`
	PaymentMethod string   `json:"payment_method"`
}

// Create bundles the member's listed unpaid contributions into one batch
// payment announcement and returns the shared code.
func (h *SettlementHandler) Create(c *gin.Context) {
	var body createSettlementRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}

	settlement, records, err := h.settlementLogic.CreateSettlement(
		CurrentUserID(c), body.IDs, model.PaymentMethod(body.PaymentMethod))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "settlement created", ToSettlementResponse(settlement, records))
}

// GetByCode returns one settlement batch with its contributions. Admin path
// used during reconciliation.
func (h *SettlementHandler) GetByCode(c *gin.Context) {
	settlement, records, err := h.settlementLogic.GetByCode(c.Param("code"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", ToSettlementResponse(settlement, records))
}
