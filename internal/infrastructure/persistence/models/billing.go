package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/billing"
)

// BillModel is the persistence model for the Bill aggregate root.
type BillModel struct {
	BusinessAggregateModel
	BillNumber         string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_bill_shop_user_number,priority:3"`
	ShopID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bill_shop_user_number,priority:1"`
	UserID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bill_shop_user_number,priority:2"`
	CustomerID         *uuid.UUID      `gorm:"type:uuid;index"`
	BillType           string          `gorm:"type:varchar(10);not null"`
	Status             string          `gorm:"type:varchar(20);not null;index"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	BillDate           time.Time       `gorm:"not null;index"`
	DueDate            *time.Time
	Notes              string `gorm:"type:text"`
	PaidAt             *time.Time
	CancelledAt        *time.Time
	CancellationReason string          `gorm:"type:text"`
	Items              []BillItemModel `gorm:"foreignKey:BillID;references:ID"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill.
func (m *BillModel) ToDomain() *billing.Bill {
	b := &billing.Bill{
		BusinessAggregateRoot: m.businessRoot(),
		BillNumber:            m.BillNumber,
		ShopID:                m.ShopID,
		UserID:                m.UserID,
		CustomerID:            m.CustomerID,
		BillType:              billing.BillType(m.BillType),
		Status:                billing.BillStatus(m.Status),
		TotalAmount:           m.TotalAmount,
		BillDate:              m.BillDate,
		DueDate:               m.DueDate,
		Notes:                 m.Notes,
		PaidAt:                m.PaidAt,
		CancelledAt:           m.CancelledAt,
		CancellationReason:    m.CancellationReason,
		Items:                 make([]billing.BillItem, len(m.Items)),
	}
	for i := range m.Items {
		b.Items[i] = m.Items[i].ToDomain()
	}
	return b
}

// FromDomain populates the persistence model from a domain Bill.
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.setBusinessRoot(b.BusinessAggregateRoot)
	m.BillNumber = b.BillNumber
	m.ShopID = b.ShopID
	m.UserID = b.UserID
	m.CustomerID = b.CustomerID
	m.BillType = string(b.BillType)
	m.Status = string(b.Status)
	m.TotalAmount = b.TotalAmount
	m.BillDate = b.BillDate
	m.DueDate = b.DueDate
	m.Notes = b.Notes
	m.PaidAt = b.PaidAt
	m.CancelledAt = b.CancelledAt
	m.CancellationReason = b.CancellationReason
	m.Items = make([]BillItemModel, len(b.Items))
	for i := range b.Items {
		m.Items[i] = BillItemModelFromDomain(b.BusinessID, &b.Items[i])
	}
}

// BillModelFromDomain creates a persistence model from a domain Bill.
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// BillItemModel is the persistence model for a bill line.
type BillItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	BusinessID  uuid.UUID       `gorm:"type:uuid;not null"`
	BillID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bill_item_line,priority:1"`
	LineNumber  int             `gorm:"not null;uniqueIndex:idx_bill_item_line,priority:2"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (BillItemModel) TableName() string {
	return "bill_items"
}

// ToDomain converts the persistence model to a domain BillItem.
func (m *BillItemModel) ToDomain() billing.BillItem {
	return billing.BillItem{
		ID:          m.ID,
		BillID:      m.BillID,
		LineNumber:  m.LineNumber,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TotalPrice:  m.TotalPrice,
	}
}

// BillItemModelFromDomain creates a persistence model from a domain BillItem.
func BillItemModelFromDomain(businessID uuid.UUID, i *billing.BillItem) BillItemModel {
	return BillItemModel{
		ID:          i.ID,
		BusinessID:  businessID,
		BillID:      i.BillID,
		LineNumber:  i.LineNumber,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		TotalPrice:  i.TotalPrice,
	}
}

// PaymentModel is the persistence model for a Payment.
type PaymentModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	BusinessID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BillID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaymentDate   time.Time       `gorm:"not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null;default:'cash'"`
	Reference     string          `gorm:"type:varchar(100)"`
	Notes         string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		ID:            m.ID,
		BusinessID:    m.BusinessID,
		BillID:        m.BillID,
		CustomerID:    m.CustomerID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		PaymentDate:   m.PaymentDate,
		PaymentMethod: billing.PaymentMethod(m.PaymentMethod),
		Reference:     m.Reference,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID,
		BusinessID:    p.BusinessID,
		BillID:        p.BillID,
		CustomerID:    p.CustomerID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: string(p.PaymentMethod),
		Reference:     p.Reference,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	BusinessAggregateModel
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Phone       string          `gorm:"type:varchar(50)"`
	Email       string          `gorm:"type:varchar(200)"`
	TotalCredit decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TotalPaid   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *billing.Customer {
	return &billing.Customer{
		BusinessAggregateRoot: m.businessRoot(),
		ShopID:                m.ShopID,
		Name:                  m.Name,
		Phone:                 m.Phone,
		Email:                 m.Email,
		TotalCredit:           m.TotalCredit,
		TotalPaid:             m.TotalPaid,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer.
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{
		ShopID:      c.ShopID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		TotalCredit: c.TotalCredit,
		TotalPaid:   c.TotalPaid,
	}
	m.setBusinessRoot(c.BusinessAggregateRoot)
	return m
}
