package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Client and KYCRecord are thin collaborator rows: the engines only consult
// status fields on them. Client/KYC administration (documents, uploads, review
// queues) is owned by a separate service.

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "ACTIVE"
	ClientStatusInactive ClientStatus = "INACTIVE"
	ClientStatusBlocked  ClientStatus = "BLOCKED"
)

type Client struct {
	ID        int          `gorm:"primary_key" json:"id"`
	FullName  string       `gorm:"size:255;not null" json:"full_name"`
	BranchId  int          `gorm:"index;not null" json:"branch_id"`
	Status    ClientStatus `gorm:"type:enum('ACTIVE','INACTIVE','BLOCKED');not null;default:'ACTIVE';index" json:"status"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "PENDING"
	KYCStatusApproved KYCStatus = "APPROVED"
	KYCStatusRejected KYCStatus = "REJECTED"
)

type KYCRecord struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ClientId  int       `gorm:"uniqueIndex;not null" json:"client_id"`
	Status    KYCStatus `gorm:"type:enum('PENDING','APPROVED','REJECTED');not null;default:'PENDING'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetClientById(ctx context.Context, tx *gorm.DB, id int) (*Client, error) {
	var client Client
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ClientHasApprovedKYC is the KYC oracle consulted before opening accounts or loans.
func ClientHasApprovedKYC(ctx context.Context, tx *gorm.DB, clientId int) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&KYCRecord{}).
		Where("client_id = ? AND status = ?", clientId, KYCStatusApproved).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
