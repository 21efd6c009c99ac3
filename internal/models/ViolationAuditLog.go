package models

import (
	"gorm.io/gorm"
)

// ViolationAuditLog tracks operator changes to a violation's status and
// remarks: who changed what, and when.
type ViolationAuditLog struct {
	gorm.Model
	ViolationID uint                   `json:"violation_id" gorm:"index"`
	Violation   *ViolationNotification `gorm:"foreignKey:ViolationID" json:"-"`
	UserID      uint                   `json:"user_id"`
	UserRole    string                 `json:"user_role"`

	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
	OldRemarks     string `json:"old_remarks"`
	NewRemarks     string `json:"new_remarks"`
	RemarksChanged bool   `json:"remarks_changed"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}
