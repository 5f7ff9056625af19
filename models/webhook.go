package models

import "strings"

// EventChargeSuccess 결제 성공 이벤트 이름
const EventChargeSuccess = "charge.success"

// PaymentEvent 결제 제공자 웹훅 이벤트
type PaymentEvent struct {
	Event string           `json:"event"`
	Data  PaymentEventData `json:"data"`
}

// PaymentEventData 이벤트 본문
type PaymentEventData struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status,omitempty"`
	Customer  PaymentCustomer `json:"customer"`
}

// PaymentCustomer 결제 고객 정보
type PaymentCustomer struct {
	Email string `json:"email"`
}

// IsChargeSuccess 라이선스 발급 대상 이벤트인지 확인
func (e PaymentEvent) IsChargeSuccess() bool {
	return e.Event == EventChargeSuccess
}

// BuyerEmail 정규화된 구매자 이메일
func (e PaymentEvent) BuyerEmail() string {
	return NormalizeEmail(e.Data.Customer.Email)
}

// Reference 정규화된 외부 결제 참조
func (e PaymentEvent) Reference() string {
	return strings.TrimSpace(e.Data.Reference)
}
