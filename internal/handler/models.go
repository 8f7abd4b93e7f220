package handler

import (
	"time"

	"github.com/pqlammy/Gennerweb-sub000/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ContributionResponse 会费响应模型
type ContributionResponse struct {
	ID             string    `json:"id"`
	UserID         uint      `json:"userId"`
	Amount         float64   `json:"amount"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	PostalCode     string    `json:"postalCode"`
	Phone          string    `json:"phone"`
	GennervogtID   *uint     `json:"gennervogtId"`
	Paid           bool      `json:"paid"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentStatus  string    `json:"paymentStatus"`
	SettlementCode *string   `json:"settlementCode"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SettlementResponse 结算响应模型
type SettlementResponse struct {
	Code          string                 `json:"code"`
	PaymentMethod string                 `json:"paymentMethod"`
	TotalAmount   float64                `json:"totalAmount"`
	Contributions []ContributionResponse `json:"contributions"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// LoginResponse 登录响应模型
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// PortalConfigResponse 表单配置响应模型
type PortalConfigResponse struct {
	Fields        map[string]string `json:"fields"`
	AmountPresets []float64         `json:"amountPresets"`
}

// ToContributionResponse 将数据库模型转换为响应模型
func ToContributionResponse(record *model.Contribution) ContributionResponse {
	return ContributionResponse{
		ID:             record.ID,
		UserID:         record.UserID,
		Amount:         record.Amount,
		FirstName:      record.FirstName,
		LastName:       record.LastName,
		Email:          record.Email,
		Address:        record.Address,
		City:           record.City,
		PostalCode:     record.PostalCode,
		Phone:          record.Phone,
		GennervogtID:   record.GennervogtID,
		Paid:           record.Paid,
		PaymentMethod:  string(record.PaymentMethod),
		PaymentStatus:  string(record.PaymentStatus),
		SettlementCode: record.SettlementCode,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

// ToContributionResponseList 将数据库模型列表转换为响应模型列表
func ToContributionResponseList(records []model.Contribution) []ContributionResponse {
	result := make([]ContributionResponse, len(records))
	for i, record := range records {
		result[i] = ToContributionResponse(&record)
	}
	return result
}

// ToSettlementResponse 将结算记录转换为响应模型
func ToSettlementResponse(settlement *model.Settlement, records []model.Contribution) SettlementResponse {
	return SettlementResponse{
		Code:          settlement.Code,
		PaymentMethod: string(settlement.PaymentMethod),
		TotalAmount:   settlement.TotalAmount,
		Contributions: ToContributionResponseList(records),
		CreatedAt:     settlement.CreatedAt,
	}
}
